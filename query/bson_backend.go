package query

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsoncodec"
	"go.mongodb.org/mongo-driver/bson/bsonrw"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrMissingParam = errors.New("parameter is not set")

var (
	bvwPool  = bsonrw.NewBSONValueWriterPool()
	buffPool = sync.Pool{New: func() interface{} {
		return &bytes.Buffer{}
	}}
)

var (
	queryCache = make(map[string]*PreparedQuery)
	queryLock  = sync.RWMutex{}
)

func MustPrepare(query string) *PreparedQuery {
	pq, err := Prepare(query)
	if err != nil {
		panic(fmt.Sprintf("can not prepare query: \"%s\", error: %v", query, err))
	}

	return pq
}

// Prepare parses query. Parsed queries are cached, so every query text is
// parsed only once.
func Prepare(query string) (*PreparedQuery, error) {
	queryLock.RLock()
	pq, ok := queryCache[query]
	queryLock.RUnlock()

	if ok {
		return pq, nil
	}

	queryLock.Lock()
	defer queryLock.Unlock()

	// double check resource locking
	pq, ok = queryCache[query]
	if ok {
		return pq, nil
	}

	n, err := NewParser(NewScanner(query)).Parse()
	if err != nil {
		return nil, err
	}

	pq = &PreparedQuery{node: n}
	queryCache[query] = pq
	return pq, nil
}

// CompiledQuery is an encoded filter document. Pass it to the driver
// wherever a filter is expected.
type CompiledQuery struct {
	buff *bytes.Buffer
}

// MarshalBSON just returns the encoded document.
func (cq CompiledQuery) MarshalBSON() ([]byte, error) {
	return cq.buff.Bytes(), nil
}

// MarshalBSONValue returns the encoded document as an embedded document
// value, so a CompiledQuery can be nested into other documents.
func (cq CompiledQuery) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bsontype.EmbeddedDocument, cq.buff.Bytes(), nil
}

// Discard returns the buffer to the internal pool. The query must not be
// used afterwards.
func (cq CompiledQuery) Discard() {
	cq.buff.Reset()
	buffPool.Put(cq.buff)
}

func MustCompile(query string, params ...interface{}) CompiledQuery {
	cq, err := Compile(query, params...)
	if err != nil {
		panic(fmt.Sprintf("can not compile query: \"%s\", error: %v", query, err))
	}

	return cq
}

// Compile prepares query and encodes it with params. Params are pairs of
// parameter name (with the leading '$') and value.
func Compile(query string, params ...interface{}) (CompiledQuery, error) {
	pq, err := Prepare(query)
	if err != nil {
		return CompiledQuery{}, err
	}

	return pq.Compile(params...)
}

// PreparedQuery is a parsed query. It is safe for concurrent use.
type PreparedQuery struct {
	node *Node
}

func (pq *PreparedQuery) String() string {
	return pq.node.String()
}

func (pq *PreparedQuery) Compile(params ...interface{}) (CompiledQuery, error) {
	prmMap, err := makeParamMap(params...)
	if err != nil {
		return CompiledQuery{}, err
	}

	buff := buffPool.Get().(*bytes.Buffer)
	buff.Reset()

	vw := bvwPool.Get(buff)
	defer bvwPool.Put(vw)

	wc := writeContext{
		ec:     bsoncodec.EncodeContext{Registry: bson.DefaultRegistry},
		prmMap: prmMap,
	}

	err = wc.encodeQuery(vw, pq.node)
	if err != nil {
		buffPool.Put(buff)
		return CompiledQuery{}, err
	}

	return CompiledQuery{buff}, nil
}

type writeContext struct {
	ec     bsoncodec.EncodeContext
	prmMap map[string]interface{}
}

func (wc writeContext) encodeQuery(vw bsonrw.ValueWriter, n *Node) error {
	dw, err := vw.WriteDocument()
	if err != nil {
		return err
	}

	err = wc.writeNode(dw, n)
	if err != nil {
		return err
	}

	return dw.WriteDocumentEnd()
}

// writeNode writes n's elements into the current document. An and-group
// writes its members side by side unless it holds more than one or-group,
// since a document can carry a single "$or" key.
func (wc writeContext) writeNode(dw bsonrw.DocumentWriter, n *Node) error {
	if n.Expr != nil {
		return wc.writeExpression(dw, n.Expr)
	}

	if n.Op == OpOr {
		return wc.writeClause(dw, "$or", n.Children)
	}

	ors := 0
	for _, c := range n.Children {
		if c.Op == OpOr && c.Expr == nil {
			ors++
		}
	}

	if ors > 1 {
		return wc.writeClause(dw, "$and", n.Children)
	}

	for _, c := range n.Children {
		err := wc.writeNode(dw, c)
		if err != nil {
			return err
		}
	}

	return nil
}

// writeClause writes clause: [ {...}, {...} ].
func (wc writeContext) writeClause(dw bsonrw.DocumentWriter, clause string, nodes []*Node) error {
	vw, err := dw.WriteDocumentElement(clause)
	if err != nil {
		return err
	}

	aw, err := vw.WriteArray()
	if err != nil {
		return err
	}

	for _, n := range nodes {
		evw, err := aw.WriteArrayElement()
		if err != nil {
			return err
		}

		err = wc.encodeQuery(evw, n)
		if err != nil {
			return err
		}
	}

	return aw.WriteArrayEnd()
}

func (wc writeContext) writeExpression(dw bsonrw.DocumentWriter, e *Expression) error {
	vw, err := dw.WriteDocumentElement(e.Key())
	if err != nil {
		return err
	}

	if e.Op == "=" && len(e.Links) == 0 {
		return wc.writeValue(vw, e.R)
	}

	odw, err := vw.WriteDocument()
	if err != nil {
		return err
	}

	for _, le := range append([]*Expression{e}, e.Links...) {
		ovw, err := odw.WriteDocumentElement(opKey(le.Op))
		if err != nil {
			return err
		}

		err = wc.writeValue(ovw, le.R)
		if err != nil {
			return err
		}
	}

	return odw.WriteDocumentEnd()
}

func opKey(op string) string {
	switch op {
	case "=":
		return "$eq"
	case "!=":
		return "$ne"
	case ">":
		return "$gt"
	case "<":
		return "$lt"
	case ">=":
		return "$gte"
	case "<=":
		return "$lte"
	}

	return op
}

func (wc writeContext) writeValue(vw bsonrw.ValueWriter, o Operand) error {
	switch o.Type {
	case VTNull:
		return vw.WriteNull()
	case VTBool:
		return vw.WriteBoolean(o.Value.(bool))
	case VTInteger:
		return vw.WriteInt64(o.Value.(int64))
	case VTFloat:
		return vw.WriteDouble(o.Value.(float64))
	case VTString:
		return vw.WriteString(o.Value.(string))
	case VTKey:
		return vw.WriteString(o.Raw)
	case VTRegex:
		r := o.Value.(Regex)
		return vw.WriteRegex(r.Pattern, r.Options)
	case VTDate:
		return vw.WriteDateTime(int64(primitive.NewDateTimeFromTime(o.Value.(time.Time))))
	case VTObjectID:
		return vw.WriteObjectID(o.Value.(primitive.ObjectID))
	case VTArray:
		return wc.writeArray(vw, o.Value.([]Operand))
	case VTParam:
		return wc.writeParam(vw, o.Raw)
	}

	return fmt.Errorf("unsupported value %q", o.Raw)
}

func (wc writeContext) writeArray(vw bsonrw.ValueWriter, items []Operand) error {
	aw, err := vw.WriteArray()
	if err != nil {
		return err
	}

	for _, item := range items {
		evw, err := aw.WriteArrayElement()
		if err != nil {
			return err
		}

		err = wc.writeValue(evw, item)
		if err != nil {
			return err
		}
	}

	return aw.WriteArrayEnd()
}

func (wc writeContext) writeParam(vw bsonrw.ValueWriter, name string) error {
	v, ok := wc.prmMap[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrMissingParam, name)
	}

	if v == nil {
		return vw.WriteNull()
	}

	encoder, err := wc.ec.LookupEncoder(reflect.TypeOf(v))
	if err != nil {
		return err
	}

	return encoder.EncodeValue(wc.ec, vw, reflect.ValueOf(v))
}

func makeParamMap(keyValues ...interface{}) (map[string]interface{}, error) {
	if len(keyValues) == 0 {
		return nil, nil
	}

	if len(keyValues)%2 != 0 {
		return nil, errors.New("keyValues should be pairs of string key and any value")
	}

	prmMap := make(map[string]interface{}, len(keyValues)/2)

	for i := 0; i < len(keyValues); i += 2 {
		s, ok := keyValues[i].(string)
		if !ok {
			return nil, fmt.Errorf("parameter key %v must be string", keyValues[i])
		}

		prmMap[s] = keyValues[i+1]
	}

	return prmMap, nil
}
