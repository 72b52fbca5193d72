package routing

import (
	"strconv"

	"github.com/ceyewan/shardkit/xerrors"
)

// Algorithm 分片算法名
type Algorithm string

const (
	// AlgorithmMod 整数取模，值需要能转换为整数
	AlgorithmMod Algorithm = "mod"
	// AlgorithmHash 对值的字符串形式做 xxhash 后取模
	AlgorithmHash Algorithm = "hash"
)

// Rule 一张逻辑表的分库分表规则
//
//	routing:
//	  rules:
//	    - logic_table: t_order
//	      database_column: user_id
//	      table_column: order_id
//	      data_sources: [ds_0, ds_1]
//	      number_of_tables: 4
//	      algorithm: mod
type Rule struct {
	LogicTable     string    `mapstructure:"logic_table" yaml:"logic_table"`
	DatabaseColumn string    `mapstructure:"database_column" yaml:"database_column"`
	TableColumn    string    `mapstructure:"table_column" yaml:"table_column"`
	DataSources    []string  `mapstructure:"data_sources" yaml:"data_sources"`
	NumberOfTables int       `mapstructure:"number_of_tables" yaml:"number_of_tables"`
	Algorithm      Algorithm `mapstructure:"algorithm" yaml:"algorithm"`

	// TableFormat 物理表后缀格式，默认与 gorm.io/sharding 一致：_%0Nd，N 为分表数的位数
	TableFormat string `mapstructure:"table_format" yaml:"table_format"`
}

// Config 路由配置
type Config struct {
	Rules []Rule `mapstructure:"rules" yaml:"rules"`
}

func (r *Rule) setDefaults() {
	if r.NumberOfTables <= 0 {
		r.NumberOfTables = 1
	}
	if r.Algorithm == "" {
		r.Algorithm = AlgorithmMod
	}
	if r.TableFormat == "" {
		r.TableFormat = "_%0" + strconv.Itoa(len(strconv.Itoa(r.NumberOfTables))) + "d"
	}
}

func (r *Rule) validate() error {
	if r.LogicTable == "" {
		return xerrors.Wrap(xerrors.ErrInvalidInput, "logic_table is required")
	}
	if len(r.DataSources) == 0 {
		return xerrors.Wrapf(xerrors.ErrInvalidInput, "rule %s: data_sources is required", r.LogicTable)
	}
	for _, ds := range r.DataSources {
		if ds == "" {
			return xerrors.Wrapf(xerrors.ErrInvalidInput, "rule %s: empty data source name", r.LogicTable)
		}
	}
	if r.NumberOfTables > 1 && r.TableColumn == "" {
		return xerrors.Wrapf(xerrors.ErrInvalidInput, "rule %s: table_column is required when number_of_tables > 1", r.LogicTable)
	}
	if len(r.DataSources) > 1 && r.DatabaseColumn == "" {
		return xerrors.Wrapf(xerrors.ErrInvalidInput, "rule %s: database_column is required when data_sources > 1", r.LogicTable)
	}
	if _, err := sharderFor(r.Algorithm); err != nil {
		return xerrors.Wrapf(err, "rule %s", r.LogicTable)
	}
	return nil
}

// PhysicalTables 按序返回规则的全部物理表名
func (r Rule) PhysicalTables() []string {
	if r.NumberOfTables <= 1 {
		return []string{r.LogicTable}
	}
	tables := make([]string, r.NumberOfTables)
	for i := range tables {
		tables[i] = r.physicalTable(i)
	}
	return tables
}

func (r Rule) physicalTable(idx int) string {
	if r.NumberOfTables <= 1 {
		return r.LogicTable
	}
	return r.LogicTable + formatSuffix(r.TableFormat, idx)
}
