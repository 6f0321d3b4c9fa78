package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/LENAX/akshare-warehouse/pkg/storage"
	"github.com/LENAX/akshare-warehouse/pkg/storage/mysql"
	"github.com/LENAX/akshare-warehouse/pkg/storage/postgres"
	pkgsqlite "github.com/LENAX/akshare-warehouse/pkg/storage/sqlite"
)

// Repositories 仓库存储组件集合（内部使用）
type Repositories struct {
	Pool      *storage.ConnectionPool
	Writer    *storage.BatchWriter
	Execution storage.ExecutionRepository
}

// DialectFor 根据数据库类型返回方言（内部方法）
// dbType: 数据库类型（sqlite/mysql/postgres）
func DialectFor(dbType string) (storage.Dialect, error) {
	switch strings.ToLower(dbType) {
	case "sqlite", "sqlite3":
		return pkgsqlite.NewSQLiteDialect(), nil
	case "mysql":
		return mysql.NewMySQLDialect(), nil
	case "postgres", "postgresql":
		return postgres.NewPostgresDialect(), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", dbType)
	}
}

// Open 打开连接池并初始化执行记录表（内部方法）
func Open(ctx context.Context, dbType, dsn string, cfg storage.PoolConfig) (*Repositories, error) {
	dialect, err := DialectFor(dbType)
	if err != nil {
		return nil, err
	}
	pool, err := storage.OpenConnectionPool(ctx, dialect, dsn, cfg)
	if err != nil {
		return nil, fmt.Errorf("create %s pool failed: %w", dialect.Name(), err)
	}
	execRepo, err := storage.NewExecutionRepo(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("create execution repository failed: %w", err)
	}
	return &Repositories{
		Pool:      pool,
		Writer:    storage.NewBatchWriter(pool),
		Execution: execRepo,
	}, nil
}

// Close 关闭数据库连接
func (r *Repositories) Close() error {
	if r.Pool != nil {
		return r.Pool.Close()
	}
	return nil
}
