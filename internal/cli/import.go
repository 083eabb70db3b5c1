package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"campus-scheduler/config"
	"campus-scheduler/internal/dto"
	"campus-scheduler/internal/importer"
	"campus-scheduler/internal/service"
)

// 终端上单个列表最多展示的条目数
const listLimit = 20

// errImportFailed 失败详情已打印，只需返回非零退出码
var errImportFailed = errors.New("导入失败")

type importOptions struct {
	file   string
	policy string
	apply  bool
}

func newImportCmd(factory ServiceFactory, configPath *string) *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import <course|teacher|classroom>",
		Short: "导入 Excel 文件",
		Long: `导入课程、教师或教室 Excel 文件。

不加 --apply 时只打印按策略生成的计划；加 --apply 后写入数据库。
--policy 可选 override / skip / onlynew，缺省取配置中的 import.default_policy。`,
		Example: `  importctl import course --file courses.xlsx
  importctl import teacher --file teachers.xlsx --policy override --apply`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entity, err := service.ParseEntity(args[0])
			if err != nil {
				return err
			}

			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			rows, err := readWorkbook(opts.file, cfg.Import.MaxRows)
			if err != nil {
				return err
			}

			svc, cleanup, err := factory(cfg)
			if err != nil {
				return fmt.Errorf("初始化导入服务失败: %w", err)
			}
			if cleanup != nil {
				defer cleanup()
			}

			policy := svc.DefaultPolicy()
			if opts.policy != "" {
				if policy, err = importer.ParsePolicy(opts.policy); err != nil {
					return err
				}
			}

			return runImport(cmd.Context(), out(cmd), svc, entity, rows, policy, opts.apply)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Excel 文件路径（.xlsx）")
	cmd.Flags().StringVarP(&opts.policy, "policy", "p", "", "冲突处理策略：override | skip | onlynew")
	cmd.Flags().BoolVar(&opts.apply, "apply", false, "写入数据库（默认只打印计划）")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func readWorkbook(path string, maxRows int) ([]importer.RawRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开文件失败: %w", err)
	}
	defer f.Close()
	return service.DecodeWorkbook(f, maxRows)
}

func runImport(ctx context.Context, w io.Writer, svc service.ImportService, entity service.Entity, rows []importer.RawRow, policy importer.Policy, apply bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if !apply {
		plan, err := svc.Plan(ctx, entity, rows, policy)
		if err != nil {
			return reportError(w, err, false)
		}
		if len(plan.ValidationErrors) > 0 {
			printValidationErrors(w, plan.ValidationErrors)
			return errImportFailed
		}
		printPlan(w, plan)
		return nil
	}

	result, err := svc.Import(ctx, entity, rows, policy)
	if err != nil {
		return reportError(w, err, svc.Transactional())
	}
	printResult(w, result)
	return nil
}

func printPlan(w io.Writer, plan *dto.ImportPlanResponse) {
	printSection(w, fmt.Sprintf("导入计划（%s，策略 %s，试运行）", plan.Entity, plan.Policy))
	printLabelValue(w, "新建", len(plan.ToCreate))
	printList(w, plan.ToCreate, listLimit)

	printLabelValue(w, "覆盖更新", len(plan.ToUpdate))
	updates := make([]string, 0, len(plan.ToUpdate))
	for _, u := range plan.ToUpdate {
		updates = append(updates, fmt.Sprintf("%s → #%d", u.Key, u.ExistingID))
	}
	printList(w, updates, listLimit)

	printLabelValue(w, "跳过", len(plan.Skipped))
	printList(w, plan.Skipped, listLimit)

	printWarnings(w, plan.Warnings)
	fmt.Fprintln(w)
	printWarning(w, "未写入数据库，确认无误后加 --apply 执行")
}

func printResult(w io.Writer, result *dto.ImportResultResponse) {
	printSection(w, fmt.Sprintf("导入完成（%s，策略 %s）", result.Entity, result.Policy))
	printLabelValue(w, "新建", result.Created)
	printLabelValue(w, "覆盖更新", result.Updated)
	printLabelValue(w, "跳过", result.Skipped)
	printWarnings(w, result.Warnings)
	fmt.Fprintln(w)
	printSuccess(w, fmt.Sprintf("共写入 %d 条记录", result.Created+result.Updated))
}

func printWarnings(w io.Writer, warnings []importer.Warning) {
	if len(warnings) == 0 {
		return
	}
	printLabelValue(w, "警告", len(warnings))
	items := make([]string, 0, len(warnings))
	for _, wn := range warnings {
		items = append(items, fmt.Sprintf("第 %d 行 %s: %s", wn.Row, wn.Key, wn.Message))
	}
	printList(w, items, listLimit)
}

func printValidationErrors(w io.Writer, errs []importer.RowError) {
	printError(w, fmt.Sprintf("校验未通过，共 %d 处错误，未生成计划", len(errs)))
	items := make([]string, 0, len(errs))
	for _, e := range errs {
		items = append(items, e.Error())
	}
	printList(w, items, listLimit)
}

// reportError 打印导入错误详情；行错误、批次拒绝与写入失败返回 errImportFailed
func reportError(w io.Writer, err error, rolledBack bool) error {
	var (
		rowErr   *importer.RowError
		batchErr *importer.BatchError
		applyErr *importer.ApplyError
	)
	switch {
	case errors.As(err, &rowErr):
		printError(w, rowErr.Error())
	case errors.As(err, &batchErr):
		printError(w, batchErr.Message)
		printList(w, batchErr.AffectedKeys, listLimit)
		printList(w, batchErr.Details, listLimit)
	case errors.As(err, &applyErr):
		printError(w, applyErr.Error())
		if rolledBack {
			printWarning(w, "已整体回滚，数据库未发生变化")
		} else {
			printWarning(w, fmt.Sprintf("前 %d 条记录已写入，%s 及之后的记录未写入", applyErr.Applied, applyErr.FailedKey))
		}
	default:
		return err
	}
	return errImportFailed
}
