package loader

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "ivtcli/internal/errors"
	"ivtcli/pkg/contracts/domain"
)

const exportHeader = ",Date,unique_idfas,unique_ips,unique_uas,total_requests,requests_per_idfa,impressions,impressions_per_idfa,idfa_ip_ratio,idfa_ua_ratio,IVT"

// sampleExport mimics a dashboard export: three summary lines, a blank line,
// the header, data rows and footer rows mixed in
const sampleExport = `Traffic report
Period,2024-05-01 to 2024-05-02
Generated,2024-05-03

` + exportHeader + `
0,2024-05-01 00:00,100,80,50,1000,10,500,5,1.25,2,0.1
1,2024-05-01 01:00,120,90,60,1100,9.1667,550,4.5833,1.3333,2,0.6
2,2024-05-01 to 2024-05-02,220,170,110,2100,,,,,,
3,,,,,,,,,,,
,Data as of 2024-05-03,,,,,,,,,,
`

var testTag = domain.SourceTag{Status: domain.StatusInvalid, AppID: "App Invalid 1"}

func parseRows(t *testing.T, content string) [][]string {
	t.Helper()
	rows, err := parseCSV(strings.NewReader(content))
	require.NoError(t, err)
	return rows
}

func TestNormalize_Export(t *testing.T) {
	records, stats, err := Normalize(parseRows(t, sampleExport), testTag, NormalizeOptions{HeaderLines: 3})
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, Stats{DataRows: 5, SummaryRows: 2, EmptyRows: 1}, stats)

	first := records[0]
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), first.Date)
	assert.Equal(t, 100.0, first.UniqueIDFAs)
	assert.Equal(t, 1000.0, first.TotalRequests)
	assert.Equal(t, 1.25, first.IDFAIPRatio)
	assert.Equal(t, 0.1, first.IVT)
	assert.Equal(t, domain.StatusInvalid, first.Status)
	assert.Equal(t, "App Invalid 1", first.AppID)

	assert.Equal(t, time.Date(2024, 5, 1, 1, 0, 0, 0, time.UTC), records[1].Date)
	assert.Equal(t, 0.6, records[1].IVT)
}

func TestNormalize_RenamesSecondColumn(t *testing.T) {
	content := strings.Replace(exportHeader, ",Date,", ",Hour,", 1) + "\n" +
		"0,2024-05-01 00:00,1,1,1,1,1,1,1,1,1,0.2\n"

	records, _, err := Normalize(parseRows(t, content), testTag, NormalizeOptions{HeaderLines: 0})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, records[0].HasDate())
}

func TestNormalize_WithoutIndexColumn(t *testing.T) {
	content := "Hour,Date,unique_idfas,unique_ips,unique_uas,total_requests,requests_per_idfa,impressions,impressions_per_idfa,idfa_ip_ratio,idfa_ua_ratio,IVT\n" +
		"h0,2024-05-01 00:00,1,2,3,4,5,6,7,8,9,0.5\n"

	records, _, err := Normalize(parseRows(t, content), testTag, NormalizeOptions{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 9.0, records[0].IDFAUARatio)
}

func TestNormalize_MissingAndBadValues(t *testing.T) {
	content := exportHeader + "\n" +
		"0,not a date,100,n/a,,1000,10,500,5,1.25,2,0.1\n" +
		"1,2024-05-01 02:00,100,80\n"

	records, _, err := Normalize(parseRows(t, content), testTag, NormalizeOptions{})
	require.NoError(t, err)
	require.Len(t, records, 2)

	bad := records[0]
	assert.False(t, bad.HasDate(), "unparseable dates become missing, the row stays")
	assert.True(t, math.IsNaN(bad.UniqueIPs))
	assert.True(t, math.IsNaN(bad.UniqueUAs))
	assert.Equal(t, 100.0, bad.UniqueIDFAs)

	short := records[1]
	assert.True(t, short.HasDate())
	assert.Equal(t, 80.0, short.UniqueIPs)
	assert.True(t, math.IsNaN(short.IVT), "short rows are padded with missing values")
}

func TestNormalize_SummaryMarkersAreCaseSensitive(t *testing.T) {
	content := exportHeader + "\n" +
		"0,TOTAL,1,1,1,1,1,1,1,1,1,1\n" +
		"1,data,1,1,1,1,1,1,1,1,1,1\n" +
		"2,Totals,1,1,1,1,1,1,1,1,1,1\n" +
		"3,month to date,1,1,1,1,1,1,1,1,1,1\n"

	records, stats, err := Normalize(parseRows(t, content), testTag, NormalizeOptions{})
	require.NoError(t, err)
	assert.Len(t, records, 3)
	assert.Equal(t, 1, stats.SummaryRows)
}

func TestNormalize_Errors(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		lines    int
		wantType apperrors.ErrorType
		contains string
	}{
		{
			name:     "missing column",
			content:  strings.Replace(exportHeader, ",IVT", ",ivt_score", 1) + "\n0,2024-05-01,1,1,1,1,1,1,1,1,1,1\n",
			wantType: apperrors.ErrTypeSchema,
			contains: "IVT",
		},
		{
			name:     "row longer than header",
			content:  exportHeader + "\n0,2024-05-01,1,1,1,1,1,1,1,1,1,1,extra\n",
			wantType: apperrors.ErrTypeParsing,
			contains: "saw 13",
		},
		{
			name:     "fewer lines than the header offset",
			content:  "a\nb\n",
			lines:    3,
			wantType: apperrors.ErrTypeSchema,
		},
		{
			name:     "single column header",
			content:  "only\n1\n",
			wantType: apperrors.ErrTypeSchema,
		},
		{
			name:     "duplicate Date after rename",
			content:  "Date" + exportHeader + "\n",
			wantType: apperrors.ErrTypeSchema,
			contains: "more than once",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Normalize(parseRows(t, tt.content), testTag, NormalizeOptions{HeaderLines: tt.lines})
			require.Error(t, err)
			assert.Equal(t, tt.wantType, apperrors.TypeOf(err))
			if tt.contains != "" {
				assert.Contains(t, err.Error(), tt.contains)
			}
		})
	}
}

func TestNormalize_EmptyData(t *testing.T) {
	records, stats, err := Normalize(parseRows(t, exportHeader+"\n"), testTag, NormalizeOptions{})
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Equal(t, 0, stats.DataRows)
}

func TestHeaderNames(t *testing.T) {
	tests := []struct {
		name string
		raw  []string
		want []string
	}{
		{
			name: "blank and repeated",
			raw:  []string{"", "a", "a", "", "a.1", "a"},
			want: []string{"Unnamed: 0", "a", "a.1", "Unnamed: 3", "a.1.1", "a.2"},
		},
		{
			name: "generated name already in the header",
			raw:  []string{"a", "a.1", "a", "a"},
			want: []string{"a", "a.1", "a.1.1", "a.2"},
		},
		{
			name: "unique",
			raw:  []string{"x", "y"},
			want: []string{"x", "y"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, headerNames(tt.raw))
		})
	}
}

func TestNormalize_CollidingExtraColumns(t *testing.T) {
	content := exportHeader + ",note,note.1,note\n" +
		"0,2024-05-01 00:00,1,1,1,1,1,1,1,1,1,0.2,x,y,z\n"

	records, _, err := Normalize(parseRows(t, content), testTag, NormalizeOptions{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 0.2, records[0].IVT)
}

func TestParseCSV_StripsBOM(t *testing.T) {
	rows := parseRows(t, "\ufeffTitle,x\n\n1,2\n")
	require.Len(t, rows, 2, "blank lines are skipped")
	assert.Equal(t, "Title", rows[0][0])
}

func TestParseNumber(t *testing.T) {
	assert.Equal(t, 12.5, parseNumber(" 12.5 "))
	assert.Equal(t, -3.0, parseNumber("-3"))
	assert.Equal(t, 1e3, parseNumber("1e3"))
	assert.True(t, math.IsNaN(parseNumber("")))
	assert.True(t, math.IsNaN(parseNumber("1,234")))
	assert.True(t, math.IsNaN(parseNumber("12%")))
}
