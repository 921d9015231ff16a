package service

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"p4-dashboard/internal/report"
)

var (
	ErrUnsupportedFile = errors.New("仅支持 .csv 与 .xlsx 文件")
	ErrEmptyUpload     = errors.New("上传文件没有数据行")
	ErrUploadParse     = errors.New("无法解析上传文件")
)

// parseUpload 按扩展名解析上传文件为原始表；首行为表头
func parseUpload(filename string, data []byte) (report.RawTable, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		rows, err = parseCSV(data)
	case ".xlsx":
		rows, err = parseXLSX(data)
	default:
		return report.RawTable{}, ErrUnsupportedFile
	}
	if err != nil {
		return report.RawTable{}, fmt.Errorf("%w: %v", ErrUploadParse, err)
	}
	if len(rows) == 0 {
		return report.RawTable{}, ErrEmptyUpload
	}

	header := rows[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	return report.RawTable{Name: filename, Header: header, Rows: rows[1:]}, nil
}

// sniffDelimiter 默认分号；表头行不含分号但含逗号时改用逗号
func sniffDelimiter(data []byte) rune {
	line, _ := bufio.NewReader(bytes.NewReader(data)).ReadString('\n')
	if !strings.Contains(line, ";") && strings.Contains(line, ",") {
		return ','
	}
	return ';'
}

func parseCSV(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = sniffDelimiter(data)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

// parseXLSX 读取第一个工作表；日期保留原始序列值，交给规范化统一解析
func parseXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	return f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
}
