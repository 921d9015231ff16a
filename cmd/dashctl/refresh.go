package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var refreshSheets []string

func init() {
	rootCmd.AddCommand(refreshCmd)
	refreshCmd.Flags().StringSliceVar(&refreshSheets, "sheet", nil, "只失效这些类别工作表，默认全部")
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "失效共享缓存，下次请求时从 Google Sheets 重新加载",
	RunE: withStack(func(ctx context.Context, st *stack, _ []string) error {
		if st.rdb == nil {
			return fmt.Errorf("Redis 不可用，没有可失效的共享缓存")
		}
		keys, err := st.svc.Dataset.Invalidate(ctx, refreshSheets...)
		if err != nil {
			return err
		}
		fmt.Println("invalidated:", strings.Join(keys, ", "))
		return nil
	}),
}
