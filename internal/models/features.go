package models

import (
	"sort"

	"github.com/campusplan/scheduler-api/internal/engine"
)

// featureBits maps API feature names onto the engine bitmask.
var featureBits = map[string]engine.Feature{
	"AC":            engine.FeatureAC,
	"PROJECTOR":     engine.FeatureProjector,
	"WHITEBOARD":    engine.FeatureWhiteboard,
	"PWD_ACCESS":    engine.FeaturePWDAccess,
	"TV":            engine.FeatureTV,
	"LAB_EQUIPMENT": engine.FeatureLabEquipment,
}

// ParseFeatures folds feature names into a bitmask. Unknown names are
// ignored; the DTO layer validates them before they reach here.
func ParseFeatures(names []string) int64 {
	var mask engine.Feature
	for _, name := range names {
		mask |= featureBits[name]
	}
	return int64(mask)
}

// FeatureNames expands a bitmask back into sorted feature names.
func FeatureNames(mask int64) []string {
	names := make([]string, 0, len(featureBits))
	for name, bit := range featureBits {
		if engine.Feature(mask)&bit != 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
