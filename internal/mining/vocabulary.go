package mining

import "strings"

// vocabulary maps a canonical parameter display name to the aliases that may
// appear in report text. Canonical names are the only keys the miner emits.
var vocabulary = map[string][]string{
	// Vitals
	"Blood Pressure":   {"Blood Pressure", "BP"},
	"Pulse":            {"Pulse", "Pulse Rate", "Heart Rate"},
	"SpO2":             {"SpO2", "Oxygen Saturation"},
	"Temperature":      {"Temperature", "Body Temperature"},
	"Respiratory Rate": {"Respiratory Rate"},

	// Complete blood count
	"Hemoglobin":      {"Hemoglobin", "Haemoglobin", "Hb"},
	"RBC Count":       {"RBC Count", "RBC", "Red Blood Cell Count"},
	"WBC Count":       {"WBC Count", "WBC", "White Blood Cell Count", "Total Leukocyte Count", "TLC"},
	"Platelet Count":  {"Platelet Count", "Platelets"},
	"Hematocrit":      {"Hematocrit", "Haematocrit", "PCV", "Packed Cell Volume"},
	"MCV":             {"MCV"},
	"MCH":             {"MCH"},
	"MCHC":            {"MCHC"},
	"ESR":             {"ESR", "Erythrocyte Sedimentation Rate"},
	"Neutrophils":     {"Neutrophils"},
	"Lymphocytes":     {"Lymphocytes"},
	"Monocytes":       {"Monocytes"},
	"Eosinophils":     {"Eosinophils"},
	"Basophils":       {"Basophils"},

	// Lipid panel
	"Total Cholesterol": {"Total Cholesterol"},
	"Cholesterol":       {"Cholesterol"},
	"Triglycerides":     {"Triglycerides"},
	"HDL Cholesterol":   {"HDL Cholesterol", "HDL"},
	"LDL Cholesterol":   {"LDL Cholesterol", "LDL"},
	"VLDL Cholesterol":  {"VLDL Cholesterol", "VLDL"},

	// Metabolic panel
	"Fasting Blood Sugar": {"Fasting Blood Sugar", "FBS", "Fasting Glucose"},
	"Blood Sugar":         {"Blood Sugar", "Glucose", "Random Blood Sugar", "RBS"},
	"HbA1c":               {"HbA1c", "Glycated Hemoglobin"},
	"Urea":                {"Urea", "Blood Urea"},
	"Creatinine":          {"Creatinine", "Serum Creatinine"},
	"Uric Acid":           {"Uric Acid"},
	"Sodium":              {"Sodium"},
	"Potassium":           {"Potassium"},
	"Chloride":            {"Chloride"},
	"Calcium":             {"Calcium"},

	// Liver panel
	"Total Bilirubin":      {"Total Bilirubin", "Bilirubin"},
	"Direct Bilirubin":     {"Direct Bilirubin"},
	"SGPT":                 {"SGPT", "ALT", "Alanine Aminotransferase"},
	"SGOT":                 {"SGOT", "AST", "Aspartate Aminotransferase"},
	"Alkaline Phosphatase": {"Alkaline Phosphatase", "ALP"},
	"Total Protein":        {"Total Protein"},
	"Albumin":              {"Albumin"},
	"Globulin":             {"Globulin"},

	// Thyroid
	"TSH":     {"TSH", "Thyroid Stimulating Hormone"},
	"T3":      {"T3", "Triiodothyronine"},
	"T4":      {"T4", "Thyroxine"},
	"Free T3": {"Free T3", "FT3"},
	"Free T4": {"Free T4", "FT4"},

	// Vitamins and iron studies
	"Vitamin D":   {"Vitamin D", "25-OH Vitamin D"},
	"Vitamin B12": {"Vitamin B12", "B12"},
	"Iron":        {"Iron", "Serum Iron"},
	"Ferritin":    {"Ferritin"},
}

// aliasToCanonical is derived from vocabulary, keyed by lowercased alias.
var aliasToCanonical = buildAliasIndex()

func buildAliasIndex() map[string]string {
	index := make(map[string]string)
	for canonical, aliases := range vocabulary {
		for _, alias := range aliases {
			lower := strings.ToLower(alias)
			// A longer canonical entry keeps ownership of a shared alias.
			if existing, ok := index[lower]; ok && len(existing) >= len(canonical) {
				continue
			}
			index[lower] = canonical
		}
	}
	return index
}

// Aliases returns every alias in the vocabulary, longest first so the
// alternation pattern prefers the more specific name.
func Aliases() []string {
	out := make([]string, 0, len(aliasToCanonical)*2)
	for _, aliases := range vocabulary {
		out = append(out, aliases...)
	}
	return out
}

// CanonicalFor maps an alias (any case) to its canonical display name.
func CanonicalFor(alias string) (string, bool) {
	canonical, ok := aliasToCanonical[strings.ToLower(strings.TrimSpace(alias))]
	return canonical, ok
}
