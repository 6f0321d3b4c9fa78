package engine

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/LENAX/akshare-warehouse/pkg/core/acquisition"
	"github.com/LENAX/akshare-warehouse/pkg/storage"
)

// cronParser 支持秒级精度的6字段表达式和@every等描述符
var cronParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Schedule 定时采集任务（对外导出）
type Schedule struct {
	Name     string
	CronExpr string
	Request  acquisition.Request
	Enabled  bool
}

// ScheduleInfo 已注册任务的快照（对外导出）
type ScheduleInfo struct {
	Name     string    `json:"name"`
	CronExpr string    `json:"cron"`
	Source   string    `json:"source"`
	Table    string    `json:"table"`
	Mode     string    `json:"mode"`
	Next     time.Time `json:"next"`
	Prev     time.Time `json:"prev"`
}

// ValidateCronExpr 校验Cron表达式（对外导出）
func ValidateCronExpr(expr string) error {
	if _, err := cronParser.Parse(expr); err != nil {
		return fmt.Errorf("Cron表达式 %q 无效: %w", expr, err)
	}
	return nil
}

// CronScheduler 定时调度器（对外导出）
type CronScheduler struct {
	cron      *cron.Cron
	engine    *Engine
	schedules map[string]*Schedule
	entries   map[string]cron.EntryID
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewCronScheduler 创建定时调度器（对外导出）
// 同一任务上一次执行未结束时跳过本次触发
func NewCronScheduler(eng *Engine) *CronScheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &CronScheduler{
		cron: cron.New(
			cron.WithParser(cronParser),
			cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger)),
		),
		engine:    eng,
		schedules: make(map[string]*Schedule),
		entries:   make(map[string]cron.EntryID),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Register 注册定时采集任务（对外导出）
func (cs *CronScheduler) Register(s *Schedule) error {
	name := strings.TrimSpace(s.Name)
	if name == "" {
		return fmt.Errorf("定时任务名称不能为空")
	}
	if !s.Enabled {
		return fmt.Errorf("定时任务 %s 未启用", name)
	}
	if strings.TrimSpace(s.Request.Source) == "" {
		return fmt.Errorf("定时任务 %s 未指定数据源", name)
	}
	if err := ValidateCronExpr(s.CronExpr); err != nil {
		return fmt.Errorf("定时任务 %s: %w", name, err)
	}

	cs.mu.Lock()
	defer cs.mu.Unlock()
	if _, exists := cs.schedules[name]; exists {
		return fmt.Errorf("定时任务 %s 已注册", name)
	}

	entryID, err := cs.cron.AddFunc(s.CronExpr, func() {
		cs.trigger(s)
	})
	if err != nil {
		return fmt.Errorf("添加Cron任务失败: %w", err)
	}
	cs.schedules[name] = s
	cs.entries[name] = entryID

	log.Printf("✅ [Cron调度器] 已注册定时任务: Name=%s, Source=%s, CronExpr=%s", name, s.Request.Source, s.CronExpr)
	return nil
}

// Unregister 取消注册定时任务（对外导出）
func (cs *CronScheduler) Unregister(name string) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	entryID, exists := cs.entries[name]
	if !exists {
		return fmt.Errorf("定时任务 %s 未注册", name)
	}
	cs.cron.Remove(entryID)
	delete(cs.schedules, name)
	delete(cs.entries, name)

	log.Printf("✅ [Cron调度器] 已取消注册定时任务: Name=%s", name)
	return nil
}

// trigger 执行一次定时采集
func (cs *CronScheduler) trigger(s *Schedule) {
	log.Printf("🕐 [Cron调度器] 触发定时任务: Name=%s, Source=%s", s.Name, s.Request.Source)
	rec, err := cs.engine.Run(cs.ctx, s.Request, storage.TriggerScheduler)
	if err != nil {
		log.Printf("❌ [Cron调度器] 定时任务 %s 执行失败: %v", s.Name, err)
		return
	}
	log.Printf("✅ [Cron调度器] 定时任务 %s 执行完成: ExecutionID=%s", s.Name, rec.ID)
}

// Start 启动定时调度器（对外导出）
func (cs *CronScheduler) Start() {
	cs.cron.Start()
	log.Println("✅ [Cron调度器] 已启动")
}

// Stop 停止定时调度器并等待正在执行的任务（对外导出）
func (cs *CronScheduler) Stop() {
	done := cs.cron.Stop()
	cs.cancel()
	<-done.Done()
	log.Println("✅ [Cron调度器] 已停止")
}

// List 返回已注册的定时任务，按名称排序（对外导出）
func (cs *CronScheduler) List() []ScheduleInfo {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	out := make([]ScheduleInfo, 0, len(cs.schedules))
	for name, s := range cs.schedules {
		entry := cs.cron.Entry(cs.entries[name])
		out = append(out, ScheduleInfo{
			Name:     name,
			CronExpr: s.CronExpr,
			Source:   s.Request.Source,
			Table:    cs.engine.resolveTable(s.Request),
			Mode:     s.Request.Mode.String(),
			Next:     entry.Next,
			Prev:     entry.Prev,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
