package flights

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func validRequest() SearchRequest {
	return SearchRequest{
		Origin:        "BLR",
		Destination:   "GOI",
		DepartureDate: "2025-05-08",
		ReturnDate:    "2025-05-12",
		Adults:        1,
	}.Normalized("inr")
}

func TestValidateAirportCode(t *testing.T) {
	cases := []struct {
		code string
		ok   bool
	}{
		{"BLR", true},
		{"JFK", true},
		{"blr", false},
		{"BL", false},
		{"BLRX", false},
		{"B1R", false},
		{"", false},
	}
	for _, tc := range cases {
		err := ValidateAirportCode(tc.code, "source")
		if tc.ok {
			require.NoError(t, err, tc.code)
			continue
		}
		var verr *ValidationError
		require.True(t, errors.As(err, &verr), tc.code)
		require.Equal(t, "source", verr.Field)
	}
}

func TestValidatePassengers(t *testing.T) {
	cases := []struct {
		name                     string
		adults, children, infant int
		field                    string
	}{
		{"one adult", 1, 0, 0, ""},
		{"full family", 2, 3, 2, ""},
		{"nine adults", 9, 0, 0, ""},
		{"no adults", 0, 1, 0, "adults"},
		{"ten adults", 10, 0, 0, "adults"},
		{"negative children", 1, -1, 0, "children"},
		{"nine children", 1, 9, 0, "children"},
		{"six infants", 6, 0, 6, "infants"},
		{"over total", 5, 3, 2, "passengers"},
		{"infants exceed adults", 1, 0, 2, "infants"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePassengers(tc.adults, tc.children, tc.infant)
			if tc.field == "" {
				require.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			require.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestValidateTravelClassAndCurrency(t *testing.T) {
	for _, c := range TravelClasses {
		require.NoError(t, ValidateTravelClass(c))
	}
	require.Error(t, ValidateTravelClass("economy"))
	require.Error(t, ValidateTravelClass("COACH"))

	require.NoError(t, ValidateCurrency("INR"))
	require.Error(t, ValidateCurrency("inr"))
	require.Error(t, ValidateCurrency("RUPEE"))
}

func TestValidateDates(t *testing.T) {
	cases := []struct {
		dep, ret string
		field    string
	}{
		{"2025-05-08", "", ""},
		{"2025-05-08", "2025-05-08", ""},
		{"2025-05-08", "2025-05-12", ""},
		{"08-05-2025", "", "travel_date"},
		{"2025-02-30", "", "travel_date"},
		{"2025-05-08", "2025/05/12", "return_date"},
		{"2025-05-08", "2025-05-07", "return_date"},
	}
	for _, tc := range cases {
		err := ValidateDates(tc.dep, tc.ret)
		if tc.field == "" {
			require.NoError(t, err, "%s..%s", tc.dep, tc.ret)
			continue
		}
		var verr *ValidationError
		require.True(t, errors.As(err, &verr), "%s..%s", tc.dep, tc.ret)
		require.Equal(t, tc.field, verr.Field)
	}
}

func TestNormalizedAndValidate(t *testing.T) {
	r := SearchRequest{Origin: " blr ", Destination: "goi", DepartureDate: "2025-05-08", Adults: 2, TravelClass: "business", MaxResults: 500}.Normalized("inr")
	require.Equal(t, "BLR", r.Origin)
	require.Equal(t, "GOI", r.Destination)
	require.Equal(t, ClassBusiness, r.TravelClass)
	require.Equal(t, "INR", r.Currency)
	require.Equal(t, SortByDuration, r.SortBy)
	require.Equal(t, maxResultsCap, r.MaxResults)
	require.NoError(t, r.Validate())

	same := validRequest()
	same.Destination = "BLR"
	require.ErrorContains(t, same.Validate(), "must differ")

	badSort := validRequest()
	badSort.SortBy = "stops"
	require.ErrorContains(t, badSort.Validate(), "sort")

	negative := validRequest()
	negative.MaxPrice = -1
	require.ErrorContains(t, negative.Validate(), "max_price")
}
