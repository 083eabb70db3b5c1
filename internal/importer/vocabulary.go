package importer

import (
	"campus-scheduler/internal/model"
)

// ── 枚举词表（折叠后比较，大小写与土耳其字符不敏感） ──

var courseTypeVocab = buildVocab(map[model.CourseType][]string{
	model.CourseTypeTheory: {"theory", "lecture", "theoretical", "teorik", "teori", "kuramsal"},
	model.CourseTypeLab:    {"lab", "laboratory", "laboratuvar", "uygulama", "practice", "practical"},
})

var categoryVocab = buildVocab(map[model.CourseCategory][]string{
	model.CategoryMandatory: {"mandatory", "required", "compulsory", "zorunlu"},
	model.CategoryElective:  {"elective", "optional", "seçmeli"},
})

var semesterVocab = buildVocab(map[model.Semester][]string{
	model.SemesterFall:   {"fall", "autumn", "güz"},
	model.SemesterSpring: {"spring", "bahar"},
	model.SemesterSummer: {"summer", "yaz"},
	model.SemesterWinter: {"winter", "kış"},
})

var activeVocab = buildVocab(map[bool][]string{
	true:  {"aktif", "active", "true", "1", "evet", "yes"},
	false: {"pasif", "inactive", "false", "0", "hayır", "no"},
})

func buildVocab[V comparable](src map[V][]string) map[string]V {
	out := make(map[string]V)
	for v, words := range src {
		for _, w := range words {
			out[model.Fold(w)] = v
		}
	}
	return out
}

// mapVocab 空值返回 def；无法映射时回显原始值
func mapVocab[V any](vocab map[string]V, row int, f field, raw string, def V) (V, *RowError) {
	if raw == "" {
		return def, nil
	}
	if v, ok := vocab[model.Fold(raw)]; ok {
		return v, nil
	}
	var zero V
	return zero, &RowError{Row: row, Field: f.label(), Value: raw, Message: "无法识别的取值"}
}
