package sources

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/LENAX/akshare-warehouse/pkg/tabular"
)

// HTMLTableSource 抓取网页中的表格（对外导出）
type HTMLTableSource struct {
	Endpoint
	Selector   string            // 表格选择器，默认"table"
	TableIndex int               // 匹配到多个表格时取第几个
	HeaderRow  int               // 表头所在行，之前的行被跳过
	Renames    map[string]string // 列重命名
	client     *Client
}

// NewHTMLTableSource 创建HTML表格数据源（对外导出）
func NewHTMLTableSource(ep Endpoint, client *Client) *HTMLTableSource {
	return &HTMLTableSource{Endpoint: ep, Selector: "table", client: client}
}

// Fetch 实现source.FetchFunc
func (s *HTMLTableSource) Fetch(ctx context.Context, params map[string]interface{}) (*tabular.Result, error) {
	body, err := s.fetch(ctx, s.client, params)
	if err != nil {
		return nil, err
	}
	return s.Parse(body)
}

// Parse 解析HTML内容中的表格
func (s *HTMLTableSource) Parse(body []byte) (*tabular.Result, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("解析HTML失败: %w", err)
	}

	selector := s.Selector
	if selector == "" {
		selector = "table"
	}
	tables := doc.Find(selector)
	if tables.Length() <= s.TableIndex {
		return nil, fmt.Errorf("未找到表格 %s[%d]，共%d个", selector, s.TableIndex, tables.Length())
	}

	var rows [][]string
	tables.Eq(s.TableIndex).Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, strings.TrimSpace(cell.Text()))
		})
		if len(cells) > 0 {
			rows = append(rows, cells)
		}
	})
	if len(rows) <= s.HeaderRow {
		return tabular.MustNew(), nil
	}

	header := rows[s.HeaderRow]
	var data [][]string
	for _, row := range rows[s.HeaderRow+1:] {
		if !allBlank(row) {
			data = append(data, row)
		}
	}
	res, err := ResultFromStrings(header, data)
	if err != nil {
		return nil, err
	}
	return res.Rename(s.Renames), nil
}

func allBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
