package generator

import (
	"bytes"
	"encoding/json"
	"fmt"

	"chemsafe-go/internal/model"

	invschema "github.com/invopop/jsonschema"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// 以下类型只描述每类文档必须具备的顶层形状，用来生成校验用的 JSON Schema。
// 没有 omitempty 的字段是必填字段；any 类型的字段不限制内容。

// Hazard 是 SDS 中的一条危害分类。
type Hazard struct {
	Type        string   `json:"type"`
	Label       string   `json:"label"`
	SignalWord  string   `json:"signalWord,omitempty"`
	Pictograms  []string `json:"pictograms,omitempty"`
	Description string   `json:"description,omitempty"`
}

// PPEItem 是一项个人防护装备。
type PPEItem struct {
	Type  string `json:"type"`
	Label string `json:"label"`
}

// LabeledValue 是属性表中的一行。
type LabeledValue struct {
	Label string `json:"label"`
	Value any    `json:"value"`
}

// SafetyDataSheet 安全数据表
type SafetyDataSheet struct {
	ChemicalName             string         `json:"chemicalName"`
	CASNumber                string         `json:"casNumber"`
	Hazards                  []Hazard       `json:"hazards"`
	PPE                      []PPEItem      `json:"ppe"`
	FirstAid                 []string       `json:"firstAid"`
	TransportInformation     any            `json:"transportInformation"`
	Description              any            `json:"description,omitempty"`
	SupplierInformation      any            `json:"supplierInformation,omitempty"`
	Composition              any            `json:"composition,omitempty"`
	ExposureControls         any            `json:"exposureControls,omitempty"`
	Properties               []LabeledValue `json:"properties,omitempty"`
	Handling                 any            `json:"handling,omitempty"`
	Storage                  any            `json:"storage,omitempty"`
	Firefighting             any            `json:"firefighting,omitempty"`
	AccidentalRelease        any            `json:"accidentalRelease,omitempty"`
	StabilityAndReactivity   any            `json:"stabilityAndReactivity,omitempty"`
	ToxicologicalInformation any            `json:"toxicologicalInformation,omitempty"`
	EcologicalInformation    any            `json:"ecologicalInformation,omitempty"`
	DisposalConsiderations   any            `json:"disposalConsiderations,omitempty"`
	RegulatoryInformation    any            `json:"regulatoryInformation,omitempty"`
	RevisionInformation      any            `json:"revisionInformation,omitempty"`
	RiskAlert                any            `json:"riskAlert,omitempty"`
}

// TechnicalDataSheet 技术数据表
type TechnicalDataSheet struct {
	ProductName          string         `json:"productName"`
	Identity             any            `json:"identity"`
	TransportInformation any            `json:"transportInformation"`
	Subtitle             any            `json:"subtitle,omitempty"`
	Category             any            `json:"category,omitempty"`
	PhysicalProperties   []LabeledValue `json:"physicalProperties,omitempty"`
	TechnicalSpecs       []LabeledValue `json:"technicalSpecs,omitempty"`
	StorageInfo          any            `json:"storageInfo,omitempty"`
	SafetyWarnings       any            `json:"safetyWarnings,omitempty"`
	SupplierInformation  any            `json:"supplierInformation,omitempty"`
	DocumentInformation  any            `json:"documentInformation,omitempty"`
	RegulatoryCompliance any            `json:"regulatoryCompliance,omitempty"`
}

// ProductDetails 原料详情
type ProductDetails struct {
	ChemicalName       string         `json:"chemicalName"`
	Synonyms           any            `json:"synonyms,omitempty"`
	CASNumber          any            `json:"casNumber,omitempty"`
	BasicInfo          any            `json:"basicInfo,omitempty"`
	SafetySummary      any            `json:"safetySummary,omitempty"`
	PhysicalProperties []LabeledValue `json:"physicalProperties,omitempty"`
	StorageInfo        any            `json:"storageInfo,omitempty"`
}

// ChemicalIdentification 是 OCR 识别结果，chemicalName 可以为 null。
type ChemicalIdentification struct {
	ChemicalName any `json:"chemicalName"`
	CASNumber    any `json:"casNumber,omitempty"`
	Formula      any `json:"formula,omitempty"`
	Probability  any `json:"probability,omitempty"`
	Note         any `json:"note,omitempty"`
}

// FileAnalysis 是上传文件的分析结果。
type FileAnalysis struct {
	ChemicalName any `json:"chemicalName"`
	Summary      any `json:"summary"`
	Confidence   any `json:"confidence,omitempty"`
	Details      any `json:"details,omitempty"`
}

// NewsRecord 是翻译后的一条新闻。
type NewsRecord struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ID          any    `json:"id,omitempty"`
	Date        any    `json:"date,omitempty"`
	Source      any    `json:"source,omitempty"`
	SourceLink  any    `json:"sourceLink,omitempty"`
	ImageURL    any    `json:"imageUrl,omitempty"`
}

// NewsEnvelope 包裹新闻列表。OpenAI 的 json_object 模式只允许顶层为对象。
type NewsEnvelope struct {
	Items []NewsRecord `json:"items"`
}

var recordTypes = map[model.DocumentKind]any{
	model.KindSafety:       &SafetyDataSheet{},
	model.KindTechnical:    &TechnicalDataSheet{},
	model.KindProduct:      &ProductDetails{},
	model.KindOCR:          &ChemicalIdentification{},
	model.KindFileAnalysis: &FileAnalysis{},
	model.KindNews:         &NewsEnvelope{},
}

// SchemaRegistry 保存每类文档编译好的 JSON Schema。
type SchemaRegistry struct {
	schemas map[model.DocumentKind]*jsonschema.Schema
}

// NewSchemaRegistry 由记录类型反射出 JSON Schema 并编译。
func NewSchemaRegistry() (*SchemaRegistry, error) {
	r := &invschema.Reflector{
		Anonymous:                 true,
		DoNotReference:            true,
		AllowAdditionalProperties: true,
	}
	reg := &SchemaRegistry{schemas: make(map[model.DocumentKind]*jsonschema.Schema, len(recordTypes))}
	for kind, v := range recordTypes {
		raw, err := json.Marshal(r.Reflect(v))
		if err != nil {
			return nil, fmt.Errorf("marshal %s schema: %w", kind, err)
		}
		compiled, err := jsonschema.CompileString(string(kind)+".schema.json", string(raw))
		if err != nil {
			return nil, fmt.Errorf("compile %s schema: %w", kind, err)
		}
		reg.schemas[kind] = compiled
	}
	return reg, nil
}

// Validate 校验文档的形状，未注册的类型直接通过。
func (r *SchemaRegistry) Validate(kind model.DocumentKind, doc json.RawMessage) error {
	s, ok := r.schemas[kind]
	if !ok {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return err
	}
	return s.Validate(v)
}
