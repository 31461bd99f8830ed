package resolution

import (
	"strings"

	"receipt-resolver-backend/entities"
)

// storeKeywords maps a store type to name fragments seen on receipts.
var storeKeywords = map[entities.StoreType][]string{
	entities.StoreGrocery: {
		"kroger", "safeway", "publix", "albertsons", "vons", "ralphs",
		"fry's", "king soopers", "stop & shop", "stop and shop", "giant",
		"h-e-b", "heb", "meijer", "wegmans", "aldi", "lidl", "food lion",
		"harris teeter", "piggly wiggly", "winn-dixie", "winn dixie",
		"shoprite", "acme", "jewel-osco", "jewel osco",
	},
	entities.StoreWarehouse: {
		"costco", "sam's club", "sams club", "bj's", "bjs",
	},
	entities.StoreSpecialty: {
		"whole foods", "trader joe", "sprouts", "natural grocers",
		"earth fare", "fresh market", "bristol farms",
	},
	entities.StoreConvenience: {
		"7-eleven", "7 eleven", "wawa", "sheetz", "circle k", "am/pm",
		"ampm", "quick trip", "quiktrip", "casey's", "caseys",
	},
	entities.StorePharmacy: {
		"cvs", "walgreens", "rite aid", "rite-aid",
	},
}

type StoreClassifier struct{}

func NewStoreClassifier() *StoreClassifier {
	return &StoreClassifier{}
}

func (c *StoreClassifier) Classify(storeName string) entities.StoreType {
	if storeName == "" {
		return entities.StoreUnknown
	}

	nameLower := strings.ToLower(storeName)
	for _, storeType := range []entities.StoreType{
		entities.StoreGrocery,
		entities.StoreWarehouse,
		entities.StoreSpecialty,
		entities.StoreConvenience,
		entities.StorePharmacy,
	} {
		for _, keyword := range storeKeywords[storeType] {
			if strings.Contains(nameLower, keyword) {
				return storeType
			}
		}
	}
	return entities.StoreUnknown
}
