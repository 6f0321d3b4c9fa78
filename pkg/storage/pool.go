package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
)

// PoolConfig 连接池配置（对外导出）
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// ConnectionPool 仓库连接池（对外导出）
// 进程内共享，每次写入独占一个连接
type ConnectionPool struct {
	db      *sqlx.DB
	dialect Dialect
}

// NewConnectionPool 基于已打开的数据库创建连接池（对外导出）
func NewConnectionPool(db *sqlx.DB, dialect Dialect) *ConnectionPool {
	return &ConnectionPool{db: db, dialect: dialect}
}

// OpenConnectionPool 通过DSN打开连接池（对外导出）
func OpenConnectionPool(ctx context.Context, dialect Dialect, dsn string, cfg PoolConfig) (*ConnectionPool, error) {
	normalized, err := dialect.NormalizeDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("解析DSN失败: %w", err)
	}
	db, err := sqlx.Open(dialect.DriverName(), normalized)
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("数据库连接失败: %w", err)
	}

	for _, stmt := range dialect.ConfigureDB() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			log.Printf("⚠️ [连接池] 执行配置语句失败 %q: %v", stmt, err)
		}
	}

	log.Printf("✅ [连接池] 已连接 %s 数据库", dialect.Name())
	return NewConnectionPool(db, dialect), nil
}

// Conn 从连接池获取独占连接，调用方必须Close归还（对外导出）
func (p *ConnectionPool) Conn(ctx context.Context) (*sqlx.Conn, error) {
	conn, err := p.db.Connx(ctx)
	if err != nil {
		return nil, fmt.Errorf("获取数据库连接失败: %w", err)
	}
	return conn, nil
}

// DB 获取底层数据库（对外导出）
func (p *ConnectionPool) DB() *sqlx.DB {
	return p.db
}

// Dialect 获取方言（对外导出）
func (p *ConnectionPool) Dialect() Dialect {
	return p.dialect
}

// Stats 连接池统计
func (p *ConnectionPool) Stats() sql.DBStats {
	return p.db.Stats()
}

// Ping 检查数据库可用性
func (p *ConnectionPool) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Close 关闭连接池（对外导出）
func (p *ConnectionPool) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}
