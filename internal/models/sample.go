package models

// SampleThemes returns the starter data set, dated relative to today.
func SampleThemes(today Date) []Theme {
	daysAgo := func(n ...int) []Date {
		dates := make([]Date, 0, len(n))
		for _, d := range n {
			dates = append(dates, today.AddDays(-d))
		}
		return dates
	}

	return []Theme{
		{
			Name: "Physical Health",
			Habits: []Habit{
				{Name: "Drink 1 gallon water", CreateDate: today.AddDays(-6), CompleteDates: daysAgo(1, 2, 3)},
				{Name: "Do push-ups", CreateDate: today.AddDays(-6), CompleteDates: daysAgo(1, 3)},
			},
		},
		{
			Name: "Mental Health",
			Habits: []Habit{
				{Name: "Meditate", CreateDate: today.AddDays(-6), CompleteDates: daysAgo(1, 2, 3, 4, 5)},
			},
		},
	}
}
