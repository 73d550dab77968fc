package cmd

import (
	"context"
	"fmt"
	"log"

	"CrayonFM/config"
	"CrayonFM/core/scanner"
	"CrayonFM/db"
	"CrayonFM/repository"

	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "扫描媒体目录并入库",
	Long:  `遍历MEDIA_ROOT下的音频文件，新文件写入music表，已有文件更新元数据。`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()

		if err := db.ConnectDB(cfg); err != nil {
			log.Fatalf("无法连接到数据库: %v", err)
		}
		defer db.DB.Close()

		if err := db.InitDB(); err != nil {
			log.Fatalf("初始化数据库失败: %v", err)
		}

		sc := scanner.New(repository.NewMySQLMusicRepository(db.DB), cfg.MediaRoot)
		added, err := sc.Scan(context.Background())
		if err != nil {
			log.Fatalf("扫描失败: %v", err)
		}
		fmt.Printf("扫描完成，新增 %d 首音乐\n", added)
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
}
