// Package sheets 封装 Google Sheets v4：整表读取、清空重写与追加行。
package sheets

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

// Table 一个工作表的原始内容：首行为表头，其余为数据行。
// 所有单元格统一为字符串；短行已按表头长度补齐。
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}

// Client Google Sheets 客户端
type Client struct {
	svc           *gsheets.Service
	spreadsheetID string
	logger        *zap.Logger
}

// NewClient 使用服务账号凭据创建客户端
func NewClient(ctx context.Context, spreadsheetID string, credentialsJSON []byte, logger *zap.Logger) (*Client, error) {
	svc, err := gsheets.NewService(ctx,
		option.WithCredentialsJSON(credentialsJSON),
		option.WithScopes(gsheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("创建 Sheets 服务失败: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, logger: logger}, nil
}

// quote 生成 A1 记法中的工作表引用，名字中的单引号需要转义
func quote(sheet string) string {
	return "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
}

// ReadAll 读取整张工作表
func (c *Client) ReadAll(ctx context.Context, sheet string) (*Table, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, quote(sheet)).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("读取工作表 %s 失败: %w", sheet, err)
	}
	t := FromValues(sheet, resp.Values)
	c.logger.Debug("读取工作表",
		zap.String("sheet", sheet),
		zap.Int("rows", len(t.Rows)),
	)
	return t, nil
}

// Replace 清空工作表后整表重写（表头 + 数据行）
func (c *Client) Replace(ctx context.Context, sheet string, header []string, rows [][]string) error {
	rng := quote(sheet)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheets.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("清空工作表 %s 失败: %w", sheet, err)
	}

	values := make([][]interface{}, 0, len(rows)+1)
	values = append(values, toInterfaces(header))
	for _, r := range rows {
		values = append(values, toInterfaces(r))
	}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng+"!A1", &gsheets.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("写入工作表 %s 失败: %w", sheet, err)
	}
	c.logger.Info("工作表已重写", zap.String("sheet", sheet), zap.Int("rows", len(rows)))
	return nil
}

// Append 在工作表末尾追加数据行
func (c *Client) Append(ctx context.Context, sheet string, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}
	values := make([][]interface{}, 0, len(rows))
	for _, r := range rows {
		values = append(values, toInterfaces(r))
	}
	if _, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, quote(sheet), &gsheets.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("追加到工作表 %s 失败: %w", sheet, err)
	}
	c.logger.Info("工作表已追加", zap.String("sheet", sheet), zap.Int("rows", len(rows)))
	return nil
}

// SheetTitles 列出电子表格中的全部工作表名
func (c *Client) SheetTitles(ctx context.Context) ([]string, error) {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("读取电子表格元数据失败: %w", err)
	}
	titles := make([]string, 0, len(ss.Sheets))
	for _, s := range ss.Sheets {
		if s.Properties != nil {
			titles = append(titles, s.Properties.Title)
		}
	}
	return titles, nil
}

// FromValues 把 API 返回的二维值转换为 Table
func FromValues(name string, values [][]interface{}) *Table {
	t := &Table{Name: name}
	if len(values) == 0 {
		return t
	}
	t.Header = toStrings(values[0], 0)
	t.Rows = make([][]string, 0, len(values)-1)
	for _, v := range values[1:] {
		t.Rows = append(t.Rows, toStrings(v, len(t.Header)))
	}
	return t
}

func toStrings(values []interface{}, width int) []string {
	out := make([]string, max(len(values), width))
	for i, v := range values {
		if v != nil {
			out[i] = fmt.Sprint(v)
		}
	}
	return out
}

func toInterfaces(cells []string) []interface{} {
	out := make([]interface{}, len(cells))
	for i, c := range cells {
		out[i] = c
	}
	return out
}
