package main

// CraftClass identifies the selectable craft preset
type CraftClass int

const (
	ClassInterceptor CraftClass = 0
	ClassFreighter   CraftClass = 1
	ClassSprinter    CraftClass = 2
)

// CraftClassDef holds the tuning for a craft preset. Values are multipliers
// over the baseline constants in craft.go and progression.go.
type CraftClassDef struct {
	Name        string
	SizeMul     float64 // craft rectangle scale
	ManeuverMul float64 // maneuver speed scale
	TankMul     float64 // fuel capacity scale
	DrainMul    float64 // fuel drain scale
	AccelCapMul float64 // afterburner multiplier cap scale
}

var CraftClasses = [3]CraftClassDef{
	// Interceptor: the baseline
	{Name: "Interceptor", SizeMul: 1.0, ManeuverMul: 1.0, TankMul: 1.0, DrainMul: 1.0, AccelCapMul: 1.0},
	// Freighter: big tank, sluggish, drinks slowly
	{Name: "Freighter", SizeMul: 1.25, ManeuverMul: 0.8, TankMul: 1.4, DrainMul: 0.8, AccelCapMul: 0.85},
	// Sprinter: nimble and thirsty
	{Name: "Sprinter", SizeMul: 0.85, ManeuverMul: 1.25, TankMul: 0.75, DrainMul: 1.25, AccelCapMul: 1.2},
}

// GetClassDef returns the definition for a craft class
func GetClassDef(class CraftClass) CraftClassDef {
	if class < 0 || int(class) >= len(CraftClasses) {
		return CraftClasses[ClassInterceptor]
	}
	return CraftClasses[class]
}
