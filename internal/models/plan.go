package models

// Plan — код тарифа членства, который передаётся через платёжного провайдера.
type Plan string

const (
	// PlanSMC — базовый курс SMC.
	PlanSMC Plan = "smc"
	// PlanWaveSMC — расширенный курс Wave SMC.
	PlanWaveSMC Plan = "wave_smc"
)

// PriceCurrency — валюта, в которой выставляются счета.
const PriceCurrency = "usd"

var planPrices = map[Plan]float64{
	PlanSMC:     119.0,
	PlanWaveSMC: 250.0,
}

// Plans возвращает все допустимые тарифы.
func Plans() []Plan {
	return []Plan{PlanSMC, PlanWaveSMC}
}

// ParsePlan возвращает тариф по его коду и признак того, что код допустим.
func ParsePlan(code string) (Plan, bool) {
	p := Plan(code)
	return p, p.Valid()
}

// Valid сообщает, входит ли тариф в перечень допустимых.
func (p Plan) Valid() bool {
	_, ok := planPrices[p]
	return ok
}

// Price возвращает стоимость тарифа в долларах США.
func (p Plan) Price() float64 {
	return planPrices[p]
}

func (p Plan) String() string {
	return string(p)
}
