package types

// ScenarioTrain describes one train in an operator-built scenario.
// Source and Destination are station names, not codes; the scenario
// boundary speaks the same vocabulary the dashboard map does.
type ScenarioTrain struct {
	TrainID       string        `json:"train_id" mapstructure:"train_id"`
	Name          string        `json:"name,omitempty" mapstructure:"name"`
	TrainType     TrainType     `json:"train_type" mapstructure:"train_type"`
	PriorityLevel PriorityLevel `json:"priority_level" mapstructure:"priority_level"`
	Source        string        `json:"source" mapstructure:"source"`
	Destination   string        `json:"destination" mapstructure:"destination"`
}

// ScenarioConstraints carries dispatch constraints for an analysis run.
type ScenarioConstraints struct {
	MinHeadwayMin float64 `json:"min_headway_min" mapstructure:"min_headway_min"`
}

// ScenarioSimulation carries simulation hints supplied by the scenario
// builder; opaque to the engine, echoed for presentation.
type ScenarioSimulation struct {
	NumTrains int `json:"num_trains" mapstructure:"num_trains"`
}

// Scenario is a complete operator scenario submitted for analysis.
type Scenario struct {
	Trains      []ScenarioTrain     `json:"trains" mapstructure:"trains"`
	Constraints ScenarioConstraints `json:"constraints" mapstructure:"constraints"`
	Simulation  ScenarioSimulation  `json:"simulation" mapstructure:"simulation"`
}

// PrecedenceAction is the per-train outcome of a precedence decision
type PrecedenceAction string

const (
	// ActionProceed lets the train take the contested block first
	ActionProceed PrecedenceAction = "PROCEED"
	// ActionHold keeps the train waiting until the block clears
	ActionHold PrecedenceAction = "HOLD"
)

// RawConflict is a conflict as the analysis boundary reports it:
// start and end are minute offsets from the scenario reference time,
// not epoch milliseconds. The adapter converts before anything enters
// the registry.
type RawConflict struct {
	Block  string  `json:"block" mapstructure:"block"`
	TrainA string  `json:"trainA" mapstructure:"trainA"`
	TrainB string  `json:"trainB" mapstructure:"trainB"`
	Start  float64 `json:"start" mapstructure:"start"`
	End    float64 `json:"end" mapstructure:"end"`
}

// BlockDecision summarizes one conflict and the precedence decision
// taken for each involved train.
type BlockDecision struct {
	Block     string                      `json:"block"`
	Trains    []string                    `json:"trains"`
	WindowMin float64                     `json:"window_min"`
	Decision  map[string]PrecedenceAction `json:"decision"`
}

// KPIImpact is a qualitative summary of how the proposed decisions
// move the dispatch KPIs.
type KPIImpact struct {
	Throughput   string `json:"throughput"`
	AverageDelay string `json:"average_delay"`
	Safety       string `json:"safety"`
}

// AnalysisReport is the structured analysis blob passed through to
// presentation. The engine fills it; nothing downstream interprets it.
type AnalysisReport struct {
	ConflictsAndDecisions []BlockDecision `json:"conflicts_and_decisions"`
	Reasoning             string          `json:"reasoning"`
	ReroutingOrStaggering string          `json:"rerouting_or_staggering"`
	KPIImpact             KPIImpact       `json:"kpi_impact"`
	EventLog              []string        `json:"event_log"`
	Fairness              string          `json:"fairness"`
	OptimizationStrategy  string          `json:"optimization_strategy"`
	ModelSummary          *string         `json:"model_summary"`
}
