package domain

import "time"

// PlanID идентификатор тарифного плана
type PlanID string

const (
	PlanSixMonth PlanID = "6month"
	PlanOneYear  PlanID = "1year"
)

// Plan представляет тарифный план подписки.
// Цены хранятся в минорных единицах валюты и известны только сервису,
// клиентский ввод на сумму не влияет.
type Plan struct {
	ID               PlanID `json:"id"`
	Name             string `json:"name"`
	AmountMinorUnits int64  `json:"amount"`
	Currency         string `json:"currency"`
	DurationMonths   int    `json:"duration_months"`
}

// PeriodEnd вычисляет дату окончания подписки от даты активации
func (p Plan) PeriodEnd(start time.Time) time.Time {
	return start.AddDate(0, p.DurationMonths, 0)
}

var plans = map[PlanID]Plan{
	PlanSixMonth: {
		ID:               PlanSixMonth,
		Name:             "Premium 6 months",
		AmountMinorUnits: 11000,
		Currency:         "INR",
		DurationMonths:   6,
	},
	PlanOneYear: {
		ID:               PlanOneYear,
		Name:             "Premium 1 year",
		AmountMinorUnits: 19900,
		Currency:         "INR",
		DurationMonths:   12,
	},
}

// PlanByID возвращает план по идентификатору.
// Неизвестный ключ отклоняется явно, а не возвращает пустой план.
func PlanByID(id PlanID) (Plan, error) {
	plan, ok := plans[id]
	if !ok {
		return Plan{}, ErrInvalidPlan
	}
	return plan, nil
}

// AllPlans возвращает все доступные планы
func AllPlans() []Plan {
	result := make([]Plan, 0, len(plans))
	for _, plan := range plans {
		result = append(result, plan)
	}
	return result
}
