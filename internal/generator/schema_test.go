package generator

import (
	"encoding/json"
	"testing"

	"chemsafe-go/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaRegistry(t *testing.T) {
	reg, err := NewSchemaRegistry()
	require.NoError(t, err)

	tests := []struct {
		name  string
		kind  model.DocumentKind
		doc   string
		valid bool
	}{
		{name: "complete sds", kind: model.KindSafety, doc: validSDS, valid: true},
		{name: "sds without hazards", kind: model.KindSafety, doc: `{"chemicalName":"a","casNumber":"b","ppe":[],"firstAid":[],"transportInformation":{}}`},
		{name: "sds hazard without label", kind: model.KindSafety, doc: `{"chemicalName":"a","casNumber":"b","hazards":[{"type":"x"}],"ppe":[],"firstAid":[],"transportInformation":{}}`},
		{name: "sds with extra keys", kind: model.KindSafety, doc: `{"chemicalName":"a","casNumber":"b","hazards":[],"ppe":[],"firstAid":[],"transportInformation":"N/A","extra":1}`, valid: true},
		{name: "tds", kind: model.KindTechnical, doc: `{"productName":"Epoxy","identity":{},"transportInformation":{}}`, valid: true},
		{name: "tds missing identity", kind: model.KindTechnical, doc: `{"productName":"Epoxy","transportInformation":{}}`},
		{name: "product", kind: model.KindProduct, doc: `{"chemicalName":"Ethanol","physicalProperties":[{"label":"Density","value":0.789}]}`, valid: true},
		{name: "product name wrong type", kind: model.KindProduct, doc: `{"chemicalName":12}`},
		{name: "ocr null name", kind: model.KindOCR, doc: `{"chemicalName":null,"note":"unreadable"}`, valid: true},
		{name: "ocr missing name", kind: model.KindOCR, doc: `{"casNumber":"67-64-1"}`},
		{name: "file analysis", kind: model.KindFileAnalysis, doc: `{"chemicalName":"Acetone","summary":"SDS page 1"}`, valid: true},
		{name: "news envelope", kind: model.KindNews, doc: `{"items":[{"title":"t","description":"d","id":1}]}`, valid: true},
		{name: "news bare list", kind: model.KindNews, doc: `[{"title":"t","description":"d","id":1}]`},
		{name: "news without items", kind: model.KindNews, doc: `{"title":"t","description":"d"}`},
		{name: "news item without title", kind: model.KindNews, doc: `{"items":[{"description":"d"}]}`},
		{name: "unregistered kind", kind: "recipe", doc: `{"anything":true}`, valid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := reg.Validate(tt.kind, json.RawMessage(tt.doc))
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
