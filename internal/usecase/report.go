package usecase

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"
	"github.com/yourusername/poizon-order-bot/internal/domain/entity"
	"github.com/yourusername/poizon-order-bot/internal/domain/repository"
)

const (
	reportUsersSheet  = "Users"
	reportOrdersSheet = "Orders"
)

// Reporter users va orders jadvallarini xlsx ga eksport qiladi
type Reporter struct {
	users  repository.UserRepository
	orders repository.OrderRepository
	dir    string
	now    func() time.Time
}

func NewReporter(users repository.UserRepository, orders repository.OrderRepository, dir string) *Reporter {
	if dir == "" {
		dir = "exports"
	}
	return &Reporter{users: users, orders: orders, dir: dir, now: time.Now}
}

// Export writes report_<timestamp>.xlsx into the export dir and returns its path.
func (r *Reporter) Export(ctx context.Context) (string, error) {
	data, err := r.Build(ctx)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(r.dir, fmt.Sprintf("report_%s.xlsx", r.now().Format("20060102_150405")))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

// Build workbook bytes with Users and Orders sheets.
func (r *Reporter) Build(ctx context.Context) ([]byte, error) {
	users, err := r.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	orders, err := r.orders.ListOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), reportUsersSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(reportOrdersSheet); err != nil {
		return nil, err
	}

	userRows := make([][]interface{}, 0, len(users))
	for _, u := range users {
		userRows = append(userRows, userReportValues(u))
	}
	if err := writeSheet(f, reportUsersSheet, userReportHeaders(), userRows); err != nil {
		return nil, err
	}

	orderRows := make([][]interface{}, 0, len(orders))
	for _, o := range orders {
		orderRows = append(orderRows, orderReportValues(o))
	}
	if err := writeSheet(f, reportOrdersSheet, orderReportHeaders(), orderRows); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet string, headers []string, rows [][]interface{}) error {
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	for i, values := range rows {
		for c, v := range values {
			cell, err := excelize.CoordinatesToCellName(c+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func userReportHeaders() []string {
	return []string{"ID", "Telegram ID", "Code", "Full name", "Phone", "Address", "Telegram", "Created at"}
}

func userReportValues(u entity.User) []interface{} {
	return []interface{}{
		u.ID,
		u.TelegramID,
		u.ShortCode,
		u.FullName,
		u.Phone,
		u.Address,
		u.TelegramLink,
		formatReportTime(u.CreatedAt),
	}
}

func orderReportHeaders() []string {
	return []string{
		"ID", "Code", "Batch", "User code", "Telegram ID", "Category", "Size", "Color", "Link",
		"Price CNY", "Rate", "Delivery", "Delivery fee", "Total RUB", "Promo", "Status",
		"Tracking", "ETA", "Payment screenshot", "Created at",
	}
}

func orderReportValues(o entity.Order) []interface{} {
	eta := ""
	if o.EstimatedDelivery != nil {
		eta = o.EstimatedDelivery.Format("2006-01-02")
	}
	return []interface{}{
		o.ID,
		o.Code,
		o.BatchID,
		o.UserCode,
		o.TelegramID,
		o.Category,
		o.Size,
		o.Color,
		o.Link,
		o.Price.String(),
		o.Rate.String(),
		o.DeliveryMethod,
		o.DeliveryFee.String(),
		o.TotalPrice.String(),
		o.PromoCode,
		o.Status.Label(),
		o.TrackingNumber,
		eta,
		o.PaymentScreenshot,
		formatReportTime(o.CreatedAt),
	}
}

func formatReportTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(time.Local).Format("2006-01-02 15:04:05")
}
