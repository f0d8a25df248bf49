package reader

import (
	"github.com/parquet-go/parquet-go"
)

// ColumnInfo describes one leaf column of a parquet file. Nested
// fields carry dot-notation names such as "address.street".
type ColumnInfo struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
	Repeated bool   `json:"repeated"`
}

// Schema reports the column layout of a parquet file without reading
// any rows.
func Schema(path string) ([]ColumnInfo, error) {
	file, pqFile, err := openParquet(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	var infos []ColumnInfo
	for _, field := range pqFile.Schema().Fields() {
		infos = append(infos, fieldInfo(field, "", false)...)
	}
	return infos, nil
}

// fieldInfo walks a field recursively. Groups contribute only their
// leaves; repetition on a group marks every leaf beneath it repeated.
func fieldInfo(field parquet.Field, prefix string, parentRepeated bool) []ColumnInfo {
	name := field.Name()
	if prefix != "" {
		name = prefix + "." + name
	}
	repeated := parentRepeated || field.Repeated()

	children := field.Fields()
	if len(children) > 0 {
		var infos []ColumnInfo
		for _, child := range children {
			infos = append(infos, fieldInfo(child, name, repeated)...)
		}
		return infos
	}

	return []ColumnInfo{{
		Name:     name,
		Type:     friendlyType(field),
		Required: field.Required(),
		Repeated: repeated,
	}}
}

// friendlyType maps parquet physical and logical types onto short
// recognizable names.
func friendlyType(field parquet.Field) string {
	if field.Type() == nil {
		return "GROUP"
	}

	if lt := field.Type().LogicalType(); lt != nil {
		switch lt.String() {
		case "STRING", "UTF8":
			return "STRING"
		case "DATE":
			return "DATE"
		case "TIME":
			return "TIME"
		case "TIMESTAMP":
			return "TIMESTAMP"
		case "DECIMAL":
			return "DECIMAL"
		case "UUID":
			return "UUID"
		case "ENUM":
			return "ENUM"
		case "JSON":
			return "JSON"
		}
	}

	switch field.Type().Kind() {
	case parquet.Boolean:
		return "BOOLEAN"
	case parquet.Int32:
		return "INT32"
	case parquet.Int64:
		return "INT64"
	case parquet.Int96:
		return "INT96"
	case parquet.Float:
		return "FLOAT32"
	case parquet.Double:
		return "FLOAT64"
	case parquet.ByteArray:
		return "BYTE_ARRAY"
	case parquet.FixedLenByteArray:
		return "FIXED_LEN_BYTE_ARRAY"
	default:
		return "UNKNOWN"
	}
}
