package pdict

import (
	"encoding"
	"encoding/base64"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	floatTag  = "!!float"
	binaryTag = "!!binary"
)

var (
	nodeType          = reflect.TypeOf(yaml.Node{})
	yamlMarshalerType = reflect.TypeOf((*yaml.Marshaler)(nil)).Elem()
	textMarshalerType = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()

	yamlUnmarshalerType = reflect.TypeOf((*yaml.Unmarshaler)(nil)).Elem()
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// EncodeNode 把 v 编码为 yaml.Node，并补上 yaml.v3 默认会丢失的类型信息：
//
// - 整数值的 float（例如 30.0）显式标注 !!float，读回仍是 float64
// - []byte 编码为 !!binary（base64），读回仍是 []byte
//
// 自定义 Marshaler 与 yaml.Node 值原样保留，不做标注。
func EncodeNode(v any) (*yaml.Node, error) {
	var n yaml.Node
	if err := n.Encode(v); err != nil {
		return nil, err
	}
	annotate(&n, reflect.ValueOf(v))
	return &n, nil
}

func annotate(n *yaml.Node, rv reflect.Value) {
	if n == nil || !rv.IsValid() {
		return
	}
	for rv.Kind() == reflect.Interface || rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return
		}
		if rv.Kind() == reflect.Pointer && hasCustomMarshal(rv.Type()) {
			return
		}
		rv = rv.Elem()
	}
	if rv.Type() == nodeType || hasCustomMarshal(rv.Type()) {
		return
	}

	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		if n.Kind == yaml.ScalarNode && n.ShortTag() != floatTag {
			n.Tag = floatTag
			n.Style &^= yaml.TaggedStyle
		}

	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			*n = yaml.Node{
				Kind:  yaml.ScalarNode,
				Tag:   binaryTag,
				Value: base64.StdEncoding.EncodeToString(rv.Bytes()),
			}
			return
		}
		annotateSeq(n, rv)

	case reflect.Array:
		annotateSeq(n, rv)

	case reflect.Map:
		if n.Kind != yaml.MappingNode || rv.Type().Key().Kind() != reflect.String {
			return
		}
		keyType := rv.Type().Key()
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := reflect.ValueOf(n.Content[i].Value).Convert(keyType)
			annotate(n.Content[i+1], rv.MapIndex(k))
		}

	case reflect.Struct:
		if n.Kind != yaml.MappingNode {
			return
		}
		fields := structFields(rv.Type())
		for i := 0; i+1 < len(n.Content); i += 2 {
			idx, ok := fields[n.Content[i].Value]
			if !ok {
				continue
			}
			if fv, err := rv.FieldByIndexErr(idx); err == nil {
				annotate(n.Content[i+1], fv)
			}
		}
	}
}

func annotateSeq(n *yaml.Node, rv reflect.Value) {
	if n.Kind != yaml.SequenceNode || len(n.Content) != rv.Len() {
		return
	}
	for i := range n.Content {
		annotate(n.Content[i], rv.Index(i))
	}
}

// structFields 按 yaml.v3 的规则计算结构体字段的 key 与字段下标：
// tag 名优先，否则为小写字段名；",inline" 展开到同一层。
func structFields(t reflect.Type) map[string][]int {
	out := map[string][]int{}
	collectFields(t, nil, out)
	return out
}

func collectFields(t reflect.Type, prefix []int, dst map[string][]int) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("yaml")
		if tag == "-" {
			continue
		}
		idx := append(append([]int(nil), prefix...), i)
		name, opts, _ := strings.Cut(tag, ",")
		if strings.Contains(","+opts+",", ",inline,") {
			ft := f.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				collectFields(ft, idx, dst)
			}
			continue
		}
		if f.PkgPath != "" {
			continue
		}
		if name == "" {
			name = strings.ToLower(f.Name)
		}
		dst[name] = idx
	}
}

func hasCustomMarshal(t reflect.Type) bool {
	return t.Implements(yamlMarshalerType) || t.Implements(textMarshalerType)
}

func hasCustomUnmarshal(t reflect.Type) bool {
	pt := reflect.PointerTo(t)
	return pt.Implements(yamlUnmarshalerType) || pt.Implements(textUnmarshalerType)
}

// expandBinary 为类型化解码做准备：目标为字节切片/数组的 !!binary 标量
// 改写为整数序列（yaml.v3 不会把 !!binary 直接解码进 []byte）。
func expandBinary(n *yaml.Node, t reflect.Type) {
	if n == nil {
		return
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nodeType || hasCustomUnmarshal(t) {
		return
	}
	if n.Kind == yaml.DocumentNode {
		if len(n.Content) > 0 {
			expandBinary(n.Content[0], t)
		}
		return
	}

	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 && n.Kind == yaml.ScalarNode && n.ShortTag() == binaryTag {
			data, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(n.Value), ""))
			if err != nil {
				// 留给解码器报错。
				return
			}
			seq := make([]*yaml.Node, len(data))
			for i, c := range data {
				seq[i] = &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(int(c))}
			}
			*n = yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Content: seq}
			return
		}
		if n.Kind == yaml.SequenceNode {
			for _, c := range n.Content {
				expandBinary(c, t.Elem())
			}
		}

	case reflect.Map:
		if n.Kind != yaml.MappingNode {
			return
		}
		for i := 1; i < len(n.Content); i += 2 {
			expandBinary(n.Content[i], t.Elem())
		}

	case reflect.Struct:
		if n.Kind != yaml.MappingNode {
			return
		}
		fields := structFields(t)
		for i := 0; i+1 < len(n.Content); i += 2 {
			if idx, ok := fields[n.Content[i].Value]; ok {
				expandBinary(n.Content[i+1], t.FieldByIndex(idx).Type)
			}
		}
	}
}

// toAny 把 yaml.Node 还原为无类型值：mapping -> map[string]any，
// sequence -> []any，!!binary -> []byte，其他标量交给 yaml.v3 解析。
func toAny(n *yaml.Node) (any, error) {
	switch n.Kind {
	case 0:
		return nil, nil
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return toAny(n.Content[0])
	case yaml.AliasNode:
		return toAny(n.Alias)
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := toAny(c)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.MappingNode:
		out := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i]
			if k.Kind != yaml.ScalarNode || k.ShortTag() == "!!merge" {
				// 复合 key 或 merge key：退回 yaml.v3 的默认解码。
				var v map[string]any
				if err := n.Decode(&v); err != nil {
					return nil, err
				}
				return v, nil
			}
			v, err := toAny(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			out[k.Value] = v
		}
		return out, nil
	case yaml.ScalarNode:
		if n.ShortTag() == binaryTag {
			b, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(n.Value), ""))
			if err != nil {
				return nil, fmt.Errorf("!!binary 不是合法的 base64：%w", err)
			}
			return b, nil
		}
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, err
		}
		return v, nil
	default:
		return nil, fmt.Errorf("未知的 YAML 节点类型：%v", n.Kind)
	}
}
