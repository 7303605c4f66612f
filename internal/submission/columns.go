package submission

import "aieni/internal/export"

// Columns is the CSV layout of a submissions export.
var Columns = []export.Column[Abstract]{
	{Label: "ID", Value: func(a Abstract) string { return a.ID }},
	{Label: "Full Name", Value: func(a Abstract) string { return a.FullName }},
	{Label: "Job Title", Value: func(a Abstract) string { return a.JobTitle }},
	{Label: "Email", Value: func(a Abstract) string { return a.Email }},
	{Label: "Phone", Value: func(a Abstract) string { return a.Phone }},
	{Label: "Institution", Value: func(a Abstract) string { return a.Institution }},
	{Label: "Country", Value: func(a Abstract) string { return a.Country }},
	{Label: "Title", Value: func(a Abstract) string { return a.Title }},
	{Label: "Co-Authors", Value: func(a Abstract) string { return export.JoinSequence(a.CoAuthors) }},
	{Label: "File Name", Value: func(a Abstract) string { return a.FileName }},
	{Label: "Status", Value: func(a Abstract) string { return string(a.Status) }},
	{Label: "Submitted", Value: func(a Abstract) string { return export.DisplayTime(a.SubmittedAt) }},
}
