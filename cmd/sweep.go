package cmd

import (
	"context"
	"fmt"
	"log"

	"CrayonFM/config"
	"CrayonFM/db"
	"CrayonFM/core/token"
	"CrayonFM/repository"

	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "清理过期的登录token",
	Long:  `扫描user_token表并删除所有已过期的记录，可配合crontab定时执行。`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()

		if err := db.ConnectDB(cfg); err != nil {
			log.Fatalf("无法连接到数据库: %v", err)
		}
		defer db.DB.Close()

		store := repository.NewMySQLTokenRepository(db.DB)
		svc := token.NewService(nil, store, cfg.TokenTTL)

		removed, err := svc.SweepExpired(context.Background())
		if err != nil {
			log.Fatalf("清理过期token失败: %v", err)
		}
		fmt.Printf("清理完成，删除 %d 条过期token\n", removed)
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}
