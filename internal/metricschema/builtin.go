package metricschema

// Registered metric type tags.
const (
	TypeWeight      = "weight"
	TypeMuscleIndex = "muscle_index"
)

// Builtin lists the schemas the service ships with.
var Builtin = []Schema{
	{Type: TypeWeight, Fields: []Field{{Name: "kg", Rule: "gt=0"}}},
	{Type: TypeMuscleIndex, Fields: []Field{{Name: "index", Rule: "gte=0,lte=100"}}},
}

// Default returns a registry of the builtin schemas.
func Default() *Registry {
	return MustNew(Builtin...)
}
