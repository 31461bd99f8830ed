package resolution

import (
	"testing"

	"receipt-resolver-backend/entities"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		storeName string
		expected  entities.StoreType
	}{
		{"KROGER #123", entities.StoreGrocery},
		{"Safeway Store 1584", entities.StoreGrocery},
		{"COSTCO WHOLESALE", entities.StoreWarehouse},
		{"Sam's Club #4789", entities.StoreWarehouse},
		{"Trader Joe's", entities.StoreSpecialty},
		{"WHOLE FOODS MARKET", entities.StoreSpecialty},
		{"7-Eleven", entities.StoreConvenience},
		{"CVS Pharmacy #2201", entities.StorePharmacy},
		{"Walgreens", entities.StorePharmacy},
		{"Bob's Corner Market", entities.StoreUnknown},
		{"", entities.StoreUnknown},
	}

	c := NewStoreClassifier()
	for _, tt := range tests {
		t.Run(tt.storeName, func(t *testing.T) {
			assert.Equal(t, tt.expected, c.Classify(tt.storeName))
		})
	}
}

func TestClassify_Deterministic(t *testing.T) {
	c := NewStoreClassifier()
	for i := 0; i < 10; i++ {
		assert.Equal(t, entities.StoreGrocery, c.Classify("Kroger Fuel Center"))
	}
}
