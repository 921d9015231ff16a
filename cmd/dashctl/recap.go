package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"p4-dashboard/internal/report"
)

var (
	recapCategory string
	recapOut      string
)

func init() {
	rootCmd.AddCommand(recapCmd)
	recapCmd.Flags().StringVarP(&recapCategory, "category", "c", string(report.DefaultCategory), "Tendik / Pendidik / Kejuruan")
	recapCmd.Flags().StringVarP(&recapOut, "out", "o", "", "写入 xlsx 文件而不是打印")
	addFilterFlags(recapCmd)
}

var recapCmd = &cobra.Command{
	Use:   "recap",
	Short: "打印指定类别的达成情况（按人数、按学校）",
	RunE: withStack(func(ctx context.Context, st *stack, _ []string) error {
		q, err := recordQuery()
		if err != nil {
			return err
		}

		if recapOut != "" {
			buf, _, err := st.svc.Export.ExportRecap(ctx, recapCategory, q)
			if err != nil {
				return err
			}
			return os.WriteFile(recapOut, buf.Bytes(), 0o644)
		}

		recap, err := st.svc.Report.Recap(ctx, recapCategory, q)
		if err != nil {
			return err
		}
		fmt.Printf("Rekap Pencapaian %s - per peserta\n", recap.Category)
		printAchievement(os.Stdout, recap.ByParticipant, recap.ParticipantTotal)
		fmt.Printf("\nRekap Pencapaian %s - per sekolah\n", recap.Category)
		printAchievement(os.Stdout, recap.BySchool, recap.SchoolTotal)
		return nil
	}),
}

func printAchievement(w io.Writer, rows []report.AchievementRow, total report.AchievementRow) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "JENJANG\tTARGET\tTERCAPAI\tPERSENTASE\tKEKURANGAN\t")
	for _, r := range append(append([]report.AchievementRow(nil), rows...), total) {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.2f%%\t%d\t\n", r.Level, r.Target, r.Achieved, r.Percent, r.Shortfall)
	}
	tw.Flush()
}
