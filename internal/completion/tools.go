package completion

import "github.com/cloudwego/eino/schema"

// ToolSpec declares a callable capability offered to the model.
// Every parameter is required; tools have no optional arguments.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  []ParamSpec
}

// ParamSpec declares one tool parameter. Items is set for array parameters
// and describes the element type.
type ParamSpec struct {
	Name        string
	Type        string // "string", "integer", "number", "boolean", "array", "object"
	Description string
	Enum        []string
	Items       *ParamSpec
}

// ToolInfo converts the declaration into the schema handed to chat models.
func (s ToolSpec) ToolInfo() *schema.ToolInfo {
	info := &schema.ToolInfo{
		Name: s.Name,
		Desc: s.Description,
	}
	if len(s.Parameters) == 0 {
		return info
	}
	params := make(map[string]*schema.ParameterInfo, len(s.Parameters))
	for _, p := range s.Parameters {
		pi := paramInfo(p)
		pi.Required = true
		params[p.Name] = pi
	}
	info.ParamsOneOf = schema.NewParamsOneOfByParams(params)
	return info
}

func paramInfo(p ParamSpec) *schema.ParameterInfo {
	pi := &schema.ParameterInfo{
		Type: paramTypeToDataType(p.Type),
		Desc: p.Description,
		Enum: p.Enum,
	}
	if pi.Type == schema.Array {
		elem := ParamSpec{Type: "string"}
		if p.Items != nil {
			elem = *p.Items
		}
		pi.ElemInfo = paramInfo(elem)
	}
	return pi
}

// paramTypeToDataType maps string type names to Eino DataType constants.
func paramTypeToDataType(t string) schema.DataType {
	switch t {
	case "number":
		return schema.Number
	case "integer":
		return schema.Integer
	case "boolean":
		return schema.Boolean
	case "array":
		return schema.Array
	case "object":
		return schema.Object
	default:
		return schema.String
	}
}

// ToolInfos converts a tool set, preserving order.
func ToolInfos(specs []ToolSpec) []*schema.ToolInfo {
	if len(specs) == 0 {
		return nil
	}
	infos := make([]*schema.ToolInfo, len(specs))
	for i, s := range specs {
		infos[i] = s.ToolInfo()
	}
	return infos
}
