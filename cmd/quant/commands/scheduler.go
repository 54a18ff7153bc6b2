package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/idxscreen/internal/scheduler"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `캐시 작업 스케줄러를 시작하거나 작업을 관리합니다.

등록되는 작업:
- cache-sweep: 메모리 캐시 만료 항목 정리 (CACHE_SWEEP_SCHEDULE, memory backend 전용)
- cache-warm: WARM_SYMBOLS 시세/차트 미리 적재 (WARM_SCHEDULE)

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행
  status  - 작업 실행 상태 조회

Example:
  go run ./cmd/quant scheduler start
  go run ./cmd/quant scheduler list
  go run ./cmd/quant scheduler run cache-warm`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		RunE:  runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}

	schedulerStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "작업 실행 상태 조회",
		RunE:  showStatus,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
	schedulerCmd.AddCommand(schedulerStatusCmd)
}

// withScheduler wires the app and its scheduler, closing the app afterwards
func withScheduler(cmd *cobra.Command, fn func(a *app, sched *scheduler.Scheduler) error) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := a.newScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	return fn(a, sched)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== idxscreen Scheduler ===")
	fmt.Println()

	return withScheduler(cmd, func(a *app, sched *scheduler.Scheduler) error {
		names := sched.GetAllJobs()
		if len(names) == 0 {
			PrintWarning("등록된 작업이 없습니다 (CACHE_BACKEND=redis 이고 WARM_SYMBOLS 가 비어 있음)")
			return nil
		}

		sched.Start()

		PrintSuccess("Scheduler started successfully")
		fmt.Println("\nRegistered jobs:")
		PrintList(names)
		fmt.Println("\nPress Ctrl+C to stop")

		// Wait for interrupt signal
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit

		fmt.Println("\nShutting down scheduler...")
		sched.Stop()
		fmt.Println("Scheduler stopped")
		return nil
	})
}

func listJobs(cmd *cobra.Command, args []string) error {
	return withScheduler(cmd, func(a *app, sched *scheduler.Scheduler) error {
		stats := sched.GetJobStats()

		widths := []int{14, 24}
		PrintTableHeader([]string{"JOB", "SCHEDULE"}, widths)
		for _, name := range sched.GetAllJobs() {
			PrintTableRow([]string{name, stats[name].Schedule}, widths)
		}
		return nil
	})
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	return withScheduler(cmd, func(a *app, sched *scheduler.Scheduler) error {
		PrintInfo(fmt.Sprintf("Running job: %s", jobName))

		result, err := sched.RunJob(jobName)
		if err != nil {
			return fmt.Errorf("run job: %w", err)
		}

		PrintKeyValue("Attempts", fmt.Sprintf("%d", result.Attempts), 10)
		PrintKeyValue("Duration", result.Duration.String(), 10)
		if !result.Success {
			PrintError(result.Error)
			return fmt.Errorf("job %s failed", jobName)
		}
		PrintSuccess(fmt.Sprintf("Job %s completed", jobName))
		return nil
	})
}

func showStatus(cmd *cobra.Command, args []string) error {
	return withScheduler(cmd, func(a *app, sched *scheduler.Scheduler) error {
		stats := sched.GetJobStats()

		fmt.Println("Job Statistics:")
		fmt.Println()

		for _, jobName := range sched.GetAllJobs() {
			stat := stats[jobName]
			fmt.Printf("📊 %s\n", jobName)
			PrintKeyValue("Schedule", stat.Schedule, 12)
			PrintKeyValue("Total Runs", fmt.Sprintf("%d", stat.TotalRuns), 12)
			PrintKeyValue("Failures", fmt.Sprintf("%d", stat.FailureCount), 12)
			if stat.NextRun != nil {
				PrintKeyValue("Next Run", stat.NextRun.Format("2006-01-02 15:04:05"), 12)
			}
			fmt.Println()
		}
		return nil
	})
}
