package parse

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFindJobPostingShapes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		raw   string
		found bool
		title string
	}{
		{
			"plain object",
			`{"@type": "JobPosting", "title": "Engineer"}`,
			true, "Engineer",
		},
		{
			"type array",
			`{"@type": ["JobPosting", "Thing"], "title": "Engineer"}`,
			true, "Engineer",
		},
		{
			"top-level array",
			`[{"@type": "WebPage"}, {"@type": "JobPosting", "title": "Engineer"}]`,
			true, "Engineer",
		},
		{
			"graph container",
			`{"@context": "https://schema.org", "@graph": [{"@type": "Organization"}, {"@type": "JobPosting", "title": "Engineer"}]}`,
			true, "Engineer",
		},
		{
			"numeric title",
			`{"@type": "JobPosting", "title": 12345}`,
			true, "12345",
		},
		{
			"wrong type",
			`{"@type": "Product", "title": "Widget"}`,
			false, "",
		},
		{
			"malformed",
			`{"@type": "JobPosting", "title":`,
			false, "",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			jp, ok := findJobPosting([]byte(tc.raw))
			require.Equal(t, tc.found, ok)
			if tc.found {
				require.Equal(t, tc.title, jp.Title.trimmed())
			}
		})
	}
}

func TestHiringOrgShapes(t *testing.T) {
	t.Parallel()

	jp, ok := findJobPosting([]byte(`{"@type": "JobPosting", "hiringOrganization": "Acme"}`))
	require.True(t, ok)
	require.Equal(t, "Acme", jp.HiringOrganization.Name)

	jp, ok = findJobPosting([]byte(`{"@type": "JobPosting", "hiringOrganization": {"name": "Acme Corp"}}`))
	require.True(t, ok)
	require.Equal(t, "Acme Corp", jp.HiringOrganization.Name)

	jp, ok = findJobPosting([]byte(`{"@type": "JobPosting", "hiringOrganization": 7}`))
	require.True(t, ok)
	require.Empty(t, jp.HiringOrganization.Name, "shape mismatch degrades to empty")
}

func TestLocationShapes(t *testing.T) {
	t.Parallel()

	jp, _ := findJobPosting([]byte(`{"@type": "JobPosting", "jobLocation": "Remote"}`))
	require.Equal(t, "Remote", jp.JobLocation.text)

	jp, _ = findJobPosting([]byte(`{"@type": "JobPosting",
		"jobLocation": {"address": {"addressLocality": "Oslo", "addressCountry": "NO"}}}`))
	require.Equal(t, "Oslo, NO", jp.JobLocation.text)

	jp, _ = findJobPosting([]byte(`{"@type": "JobPosting", "jobLocation": [
		{"address": {"addressLocality": "Paris"}},
		{"address": {"addressLocality": "Lyon", "addressRegion": "ARA"}}]}`))
	require.Equal(t, "Paris; Lyon, ARA", jp.JobLocation.text)
}

func TestBaseSalaryShapes(t *testing.T) {
	t.Parallel()

	jp, _ := findJobPosting([]byte(`{"@type": "JobPosting", "baseSalary": {
		"currency": "USD", "value": {"minValue": 90000, "maxValue": 120000, "unitText": "YEAR"}}}`))
	require.Equal(t, "USD 90,000 - 120,000 / YEAR", jp.BaseSalary.text())

	jp, _ = findJobPosting([]byte(`{"@type": "JobPosting", "baseSalary": {
		"currency": "EUR", "value": {"minValue": 70000}}}`))
	require.Equal(t, "EUR 70,000 / YEAR", jp.BaseSalary.text())

	jp, _ = findJobPosting([]byte(`{"@type": "JobPosting", "baseSalary": {"currency": "USD", "value": 95000}}`))
	require.Equal(t, "USD 95,000", jp.BaseSalary.text())

	jp, _ = findJobPosting([]byte(`{"@type": "JobPosting", "baseSalary": {"currency": "USD"}}`))
	require.Empty(t, jp.BaseSalary.text())
}

func TestGroupDigits(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{950, "950"},
		{1000, "1,000"},
		{150000, "150,000"},
		{1234567.5, "1,234,567.5"},
		{-42000, "-42,000"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, groupDigits(tc.in))
	}
}
