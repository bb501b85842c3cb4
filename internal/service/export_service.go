package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"bloomtrack/backend/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoArchives   = errors.New("暂无归档数据可导出")
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// ExportService 导出业务接口
//
// 设计说明：
//   - 归档数据导出为 Excel (.xlsx)，由 Handler 层设置响应头后写入 Response
//   - 收获日历以 iCalendar (.ics) 文本输出，可订阅到日历客户端
type ExportService interface {
	// ExportArchives 导出全部周期归档为 Excel
	ExportArchives(ctx context.Context) (*bytes.Buffer, string, error)
	// HarvestCalendar 生成各房间预计收获日期的 iCalendar 订阅
	HarvestCalendar(ctx context.Context) (string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportArchives — 导出归档为 Excel
// ═══════════════════════════════════════════════════════════
//
// 表头: | 房间 | 周期 | 品种 | 开始日期 | 收获日期 | 实际天数 |
//       | 株数 | 湿重(g) | 干重(g) | 干湿比(%) | 克/瓦 | 修剪状态 |

func (s *exportService) ExportArchives(ctx context.Context) (*bytes.Buffer, string, error) {
	archives, err := s.repo.Archive.ListAll(ctx)
	if err != nil {
		s.logger.Error("查询归档失败", zap.Error(err))
		return nil, "", err
	}
	if len(archives) == 0 {
		return nil, "", ErrExportNoArchives
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "周期归档"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 12)
	f.SetColWidth(sheetName, "B", "C", 20)
	f.SetColWidth(sheetName, "D", "E", 14)
	f.SetColWidth(sheetName, "F", "L", 12)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#548235"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	headers := []string{
		"房间", "周期", "品种", "开始日期", "收获日期", "实际天数",
		"株数", "湿重(g)", "干重(g)", "干湿比(%)", "克/瓦", "修剪状态",
	}
	for i, h := range headers {
		f.SetCellValue(sheetName, cell(colName(i), 1), h)
	}
	f.SetCellStyle(sheetName, "A1", cell(colName(len(headers)-1), 1), headerStyle)

	row := 2
	for i := range archives {
		a := &archives[i]
		f.SetCellValue(sheetName, cell("A", row), a.RoomName)
		f.SetCellValue(sheetName, cell("B", row), a.CycleName)
		f.SetCellValue(sheetName, cell("C", row), a.Strain)
		f.SetCellValue(sheetName, cell("D", row), a.StartDate.Format("2006-01-02"))
		f.SetCellValue(sheetName, cell("E", row), a.HarvestDate.Format("2006-01-02"))
		f.SetCellValue(sheetName, cell("F", row), a.ActualDays)
		f.SetCellValue(sheetName, cell("G", row), a.PlantsCount)
		f.SetCellValue(sheetName, cell("H", row), a.Metrics.TotalWetWeight)
		f.SetCellValue(sheetName, cell("I", row), a.Metrics.TotalTrimWeight)
		if a.Metrics.DryToWetPercent != nil {
			f.SetCellValue(sheetName, cell("J", row), *a.Metrics.DryToWetPercent)
		} else {
			f.SetCellValue(sheetName, cell("J", row), "-")
		}
		if a.Metrics.GramsPerWatt != nil {
			f.SetCellValue(sheetName, cell("K", row), *a.Metrics.GramsPerWatt)
		} else {
			f.SetCellValue(sheetName, cell("K", row), "-")
		}
		f.SetCellValue(sheetName, cell("L", row), a.TrimStatus)
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("周期归档_%s.xlsx", time.Now().Format("2006-01-02"))
	return buf, filename, nil
}

// ═══════════════════════════════════════════════════════════
// HarvestCalendar — 预计收获日期的 iCalendar 订阅
// ═══════════════════════════════════════════════════════════

func (s *exportService) HarvestCalendar(ctx context.Context) (string, error) {
	rooms, err := s.repo.Room.List(ctx)
	if err != nil {
		s.logger.Error("查询房间失败", zap.Error(err))
		return "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//bloomtrack//harvest-calendar//CN")
	cal.SetName("预计收获日历")

	for i := range rooms {
		room := &rooms[i]
		if !room.IsActive || room.ExpectedHarvestDate == nil {
			continue
		}

		uid := fmt.Sprintf("harvest-%s@bloomtrack", room.RoomID)
		event := cal.AddEvent(uid)
		event.SetCreatedTime(time.Now())
		event.SetDtStampTime(time.Now())
		event.SetAllDayStartAt(*room.ExpectedHarvestDate)
		event.SetAllDayEndAt(room.ExpectedHarvestDate.AddDate(0, 0, 1))
		event.SetSummary(fmt.Sprintf("收获: %s (%s)", room.Name, room.Strain))
		event.SetDescription(fmt.Sprintf("周期 %s，%d 株，开花 %d 天",
			room.CycleName, room.PlantsCount, room.FloweringDays))
	}

	return cal.Serialize(), nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
