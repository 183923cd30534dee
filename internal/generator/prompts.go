package generator

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"chemsafe-go/internal/model"
)

// promptData 是渲染提示词模板时可用的字段。
type promptData struct {
	Subject  string
	Language string
	News     []model.NewsItem
}

const outputRules = `
OUTPUT RULES:
Return ONLY one valid JSON value with exactly the keys shown below.
No markdown, no code fences, no comments, no explanations, no trailing commas.`

const safetyTemplate = `Role:
You are a chemical safety expert and certified author of SDS (Safety Data Sheet) documents,
working to Turkish KKDİK / SEA and EU REACH & CLP requirements.

Task:
Prepare complete, inspection-ready SDS data for the chemical "{{.Subject}}".
Write every text value in {{.Language}}.

General rules:
- Use the term "SDS" only, never "MSDS".
- Follow the official 16-section SDS structure.
- CLP (GHS) classification is mandatory: H-statements, P-statements, signal word and pictograms.
- Never leave a field empty. Where data does not exist write "Uygulanamaz" or "Mevcut veri yok".
- Formal technical language, no marketing text and no legal disclaimers.

Consistency rules:
- The hazard classification must agree with PPE, firefighting, transport and disposal sections.
- If the substance is classified as hazardous, the "hazards" array MUST NOT be empty.
- If any hazard is flammable, explosive or environmental, transportInformation MUST give the UN number,
  ADR class and packing group instead of "Uygulanamaz".
- PPE must cover the worst-case exposure.
` + outputRules + `

{
  "chemicalName": "official chemical name",
  "casNumber": "CAS No / EC No",
  "supplierInformation": {"companyName": "", "address": "", "phone": "", "emergencyPhone": ""},
  "description": "identification and recommended uses (section 1)",
  "composition": [{"componentName": "", "casNumber": "", "concentration": "", "classification": ""}],
  "hazards": [{
    "type": "flammable | irritant | toxic | corrosive | oxidizer | explosive | environmental | health_hazard | gas_cylinder",
    "label": "CLP hazard class",
    "signalWord": "Tehlike | Dikkat",
    "pictograms": ["GHS02"],
    "description": "H-statements and explanation"
  }],
  "exposureControls": {"occupationalExposureLimit": "", "engineeringControls": "", "ppeNotes": ""},
  "ppe": [{"type": "goggles | gloves | lab_coat | mask | face_shield | respirator", "label": ""}],
  "properties": [{"label": "physical/chemical property", "value": "value with unit"}],
  "handling": "section 7 handling",
  "storage": "section 7 storage and incompatibilities",
  "firstAid": ["inhalation", "skin contact", "eye contact", "ingestion"],
  "firefighting": ["suitable extinguishing media", "special hazards and protective equipment"],
  "accidentalRelease": "section 6",
  "stabilityAndReactivity": "section 10",
  "toxicologicalInformation": "section 11",
  "ecologicalInformation": "section 12",
  "disposalConsiderations": "section 13",
  "transportInformation": "UN number, proper shipping name, ADR/RID/IMDG/IATA class (section 14)",
  "regulatoryInformation": "KKDİK / SEA / REACH / CLP (section 15)",
  "revisionInformation": {"sdsVersion": "", "revisionDate": "DD.MM.YYYY", "changes": ""},
  "riskAlert": {"hasAlert": true, "title": "", "description": ""}
}`

const technicalTemplate = `Role:
You are an industrial chemist and technical documentation specialist with regulatory expertise.

Task:
Produce a complete, regulation-compliant Technical Data Sheet (TDS) for the product "{{.Subject}}".
Write every text value in {{.Language}}.

Rules:
- Comply with Turkish KKDİK and EU REACH / CLP.
- Never leave a required field empty; use "Mevcut veri yok" or "Uygulanamaz" where data does not exist.
- Reference TS, EN or ISO standards where relevant.
- Transport information must agree with the hazard classification. If the product is hazardous
  (flammable, toxic, corrosive, ...) transportInformation MUST be filled in.
- GHS labels must match the classification. Supplier data must be realistic but generic.
` + outputRules + `

{
  "productName": "standardized product name",
  "subtitle": "common name or formula",
  "category": "Industrial | Laboratory | Reagent | Food Grade | Pharmaceutical",
  "identity": {"casNumber": "", "ecNumber": "", "formula": "", "molecularWeight": ""},
  "physicalProperties": [{"label": "Appearance | Odor | pH | Density | Melting Point | Boiling Point | Flash Point | Vapor Pressure | Solubility", "value": ""}],
  "technicalSpecs": [{"label": "Purity (Min) | Assay | Iron (Fe) | Chloride (Cl) | Carbonate (Max) | Heavy Metals", "value": ""}],
  "storageInfo": {"conditions": [""], "shelfLife": ""},
  "safetyWarnings": {"ghsLabels": ["skull | health_and_safety | warning | corrosive | flammable | oxidizer | environment"], "hazardStatement": "", "ghsTitle": ""},
  "supplierInformation": {"companyName": "", "address": "", "phone": "", "email": "", "website": ""},
  "documentInformation": {"documentNumber": "TDS-<code>-001", "revisionNumber": "Rev. 1.0", "issueDate": "DD.MM.YYYY", "supersedes": "İlk Yayın"},
  "regulatoryCompliance": {"reach": "", "kkdik": "", "standards": [""]},
  "transportInformation": {"unNumber": "", "properShippingName": "", "transportClass": "", "packingGroup": ""}
}`

const productTemplate = `Role:
You are a chemical safety officer and industrial chemist.

Task:
Give a detailed technical overview of the chemical product "{{.Subject}}" for a laboratory inventory system.
Write every text value in {{.Language}}.
` + outputRules + `

{
  "chemicalName": "full standardized name",
  "synonyms": "common synonyms",
  "casNumber": "CAS number",
  "basicInfo": {"formula": "", "molecularWeight": "", "appearance": "", "purityGrade": ""},
  "safetySummary": {"dangerDescription": "one or two sentence warning", "hazards": [""], "ppEs": [""]},
  "physicalProperties": [{"label": "Boiling Point | Melting Point | Density | Solubility", "value": ""}],
  "storageInfo": {"location": "", "conditions": ""}
}`

const ocrTemplate = `Role:
You are an industrial chemist who identifies products from label text.

Task:
The text below was read by OCR from a chemical container label. Identify the primary chemical raw material,
its CAS number and its formula.

Rules:
1. Ignore manufacturer names, quantities, batch numbers and shipping text.
2. Only identify the chemical.
3. If several chemicals appear, choose the main one.
4. If no chemical can be identified, set chemicalName to null.

Label text:
"""
{{.Subject}}
"""

Write the identified information in {{.Language}}.
` + outputRules + `

{
  "chemicalName": "standardized chemical name or null",
  "casNumber": "CAS number or null",
  "formula": "chemical formula or null",
  "probability": "0-100",
  "note": "short reason for the choice"
}`

const fileAnalysisTemplate = `Role:
You are a chemical safety officer.

Task:
Analyze the attached safety data sheet or chemical document and summarize the key safety information.
Write every text value in {{.Language}}.
` + outputRules + `

{
  "confidence": "percentage",
  "chemicalName": "chemical name",
  "summary": {"hazards": "", "ppe": "", "firstAid": "", "storage": ""},
  "details": {
    "hazards": [{"type": "flammable | irritant | toxic | corrosive | oxidizer | explosive | environmental | health_hazard | gas_cylinder", "label": "", "description": ""}],
    "ppe": [{"type": "goggles | gloves | lab_coat | mask | face_shield | respirator", "label": ""}],
    "flashPoint": "value or N/A",
    "casNumber": "value if present"
  }
}`

const newsTemplate = `Role:
You are a science news editor.

Task:
Translate the following science and chemistry news items into {{.Language}} and format them.

Input news:
{{range $i, $n := .News}}
Item {{inc $i}}:
Title: {{$n.Title}}
Summary: {{$n.Summary}}
Link: {{$n.Link}}
{{end}}
Rules:
1. Translate the title and summary. Keep summaries to two or three sentences.
2. Keep the original link in sourceLink.
3. Give each item a static Unsplash image URL matching its topic (chemistry, biology, lab, dna, atom).
4. Return exactly {{len .News}} items inside the "items" array of a JSON object.
` + outputRules + `

{
  "items": [
    {
      "id": 1,
      "title": "translated title",
      "description": "translated summary",
      "date": "YYYY-MM-DD",
      "source": "ScienceDaily",
      "sourceLink": "original link",
      "imageUrl": "https://images.unsplash.com/..."
    }
  ]
}`

const metadataTemplate = `Aşağıdaki kimya/laboratuvar konuşmasını analiz et ve şunları öner:

1. Kısa, açıklayıcı bir başlık (en fazla 4-5 kelime)
2. Google Material Icons içinden uygun bir ikon adı (örn: science, biotech, warning, eco, lab_profile, vial, experiment)

Konuşma:
{{.Subject}}

Yanıtını SADECE şu JSON formatında ver, başka açıklama ekleme:
{
  "title": "Başlık",
  "icon": "icon_adi"
}`

var templates = map[model.DocumentKind]*template.Template{}

var metadataPrompt = template.Must(template.New("chat_metadata").Parse(metadataTemplate))

func init() {
	funcs := template.FuncMap{"inc": func(i int) int { return i + 1 }}
	for kind, text := range map[model.DocumentKind]string{
		model.KindSafety:       safetyTemplate,
		model.KindTechnical:    technicalTemplate,
		model.KindProduct:      productTemplate,
		model.KindOCR:          ocrTemplate,
		model.KindFileAnalysis: fileAnalysisTemplate,
		model.KindNews:         newsTemplate,
	} {
		templates[kind] = template.Must(template.New(string(kind)).Funcs(funcs).Parse(text))
	}
}

// BuildPrompt 渲染某类文档的提示词。
func BuildPrompt(kind model.DocumentKind, data promptData) (string, error) {
	tmpl, ok := templates[kind]
	if !ok {
		return "", fmt.Errorf("no prompt template for kind %q", kind)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", kind, err)
	}
	return buf.String(), nil
}

const metadataSnippetRunes = 150

// summarizeConversation 把对话压缩成每条一行，内容截断到 150 个字符。
func summarizeConversation(turns []model.ChatTurn) string {
	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		label := "AI"
		if t.Role == model.RoleUser {
			label = "Kullanıcı"
		}
		text := []rune(t.Text())
		snippet := string(text)
		if len(text) > metadataSnippetRunes {
			snippet = string(text[:metadataSnippetRunes]) + "..."
		}
		lines = append(lines, label+": "+snippet)
	}
	return strings.Join(lines, "\n")
}

func buildMetadataPrompt(turns []model.ChatTurn) (string, error) {
	var buf bytes.Buffer
	if err := metadataPrompt.Execute(&buf, promptData{Subject: summarizeConversation(turns)}); err != nil {
		return "", fmt.Errorf("render metadata prompt: %w", err)
	}
	return buf.String(), nil
}
