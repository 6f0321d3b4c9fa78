package source

import "strings"

// 数据源分类
const (
	CategoryStock    = "stock"
	CategoryFund     = "fund"
	CategoryFutures  = "futures"
	CategoryIndex    = "index"
	CategoryBond     = "bond"
	CategoryForex    = "forex"
	CategoryEconomic = "economic"
	CategoryMacro    = "macro"
)

// Category 分类说明（对外导出）
type Category struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	SortOrder   int    `json:"sort_order"`
}

// Categories 全部分类，按SortOrder排列（对外导出）
var Categories = []Category{
	{Name: CategoryStock, Description: "股票数据", SortOrder: 1},
	{Name: CategoryFund, Description: "基金数据", SortOrder: 2},
	{Name: CategoryFutures, Description: "期货数据", SortOrder: 3},
	{Name: CategoryIndex, Description: "指数数据", SortOrder: 4},
	{Name: CategoryBond, Description: "债券数据", SortOrder: 5},
	{Name: CategoryForex, Description: "外汇数据", SortOrder: 6},
	{Name: CategoryEconomic, Description: "经济数据", SortOrder: 7},
	{Name: CategoryMacro, Description: "宏观数据", SortOrder: 8},
}

// InferCategory 根据名称前缀推断分类，无法识别时归为stock（对外导出）
func InferCategory(name string) string {
	lower := strings.ToLower(name)
	for _, c := range Categories {
		if strings.HasPrefix(lower, c.Name) {
			return c.Name
		}
	}
	return CategoryStock
}
