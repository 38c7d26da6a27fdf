package extract

import (
	"fmt"

	"github.com/spf13/viper"
)

// Category pairs a category name with the keyword substrings that vote
// for it. Order matters: when two categories tie on score, the one
// declared first wins.
type Category struct {
	Name     string   `mapstructure:"name"`
	Keywords []string `mapstructure:"keywords"`
}

// Lexicon holds every keyword table the extractors match against. The
// extractors themselves are pure functions over this data, so swapping
// the lexicon (e.g. for another market's receipts) needs no code change.
type Lexicon struct {
	AmountKeywords []string   `mapstructure:"amount_keywords"`
	BusinessWords  []string   `mapstructure:"business_words"`
	AreaWords      []string   `mapstructure:"area_words"`
	AddressWords   []string   `mapstructure:"address_words"`
	Brands         []string   `mapstructure:"brands"`
	Categories     []Category `mapstructure:"categories"`
}

// LoadLexicon reads a lexicon override from a YAML file. An empty path
// returns the built-in default.
func LoadLexicon(path string) (*Lexicon, error) {
	if path == "" {
		return DefaultLexicon(), nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read lexicon file: %w", err)
	}

	var lex Lexicon
	if err := v.Unmarshal(&lex); err != nil {
		return nil, fmt.Errorf("failed to unmarshal lexicon: %w", err)
	}

	if len(lex.AmountKeywords) == 0 || len(lex.Categories) == 0 {
		return nil, fmt.Errorf("lexicon %s is missing amount_keywords or categories", path)
	}

	return &lex, nil
}

// DefaultLexicon returns the built-in keyword tables tuned for Indian
// retail receipts.
func DefaultLexicon() *Lexicon {
	return &Lexicon{
		// Ordered from most to least specific: every keyword produces
		// candidates, so order only affects scan cost, not the result.
		AmountKeywords: []string{
			"amount",
			"grand total",
			"net amount",
			"total amount",
			"amount payable",
			"total payable",
			"amount paid",
			"cash paid",
			"paid amount",
			"final amount",
			"invoice total",
			"bill total",
			"bill value",
			"total fare",
			"fare amount",
			"total rs",
			"total inr",
			"total value",
			"total",
			"gross amount",
		},

		BusinessWords: []string{
			"travels", "store", "mart", "hotel", "restaurant", "cafe",
			"bakery", "medical", "pharmacy", "shop", "agency", "unit",
			"enterprise", "traders", "fashion", "textiles", "electronics",
			"mobiles", "footwear", "supermarket", "center", "centre",
			"food", "foods", "pvt", "ltd", "stores",
		},

		AreaWords: []string{
			"nagar", "pur", "patti", "pettai", "kottai", "palayam",
			"town", "city", "airport", "delhi", "chennai", "madurai",
		},

		AddressWords: []string{
			"road", "rd", "street", "main",
		},

		Brands: []string{
			// Fashion & retail
			"zudio", "trends", "pantaloons", "westside", "max",
			"lifestyle", "reliance", "reliance trends", "reliance digital",
			"dmart",
			// Electronics / mobile
			"poorvika", "sangeetha", "croma", "vijay sales",
			// Food / cafe
			"kfc", "dominos", "pizza hut", "mcdonalds", "starbucks", "subway",
			// Online / delivery
			"amazon", "flipkart", "zomato", "swiggy",
		},

		Categories: []Category{
			{Name: "Medical", Keywords: []string{
				"hospital", "clinic", "pharmacy", "chemist", "doctor",
				"tablet", "capsule", "syrup", "injection", "medicine",
				"lab", "laboratory", "scan", "xray", "ecg", "bandage",
				"healthcare", "diagnostic", "medicalstore",
			}},
			{Name: "Hotel", Keywords: []string{
				"hotel", "lodge", "resort", "inn", "hostel",
				"room", "stay", "checkin", "checkout",
				"oyo", "booking", "accommodation",
			}},
			{Name: "Food", Keywords: []string{
				"restaurant", "cafe", "coffee", "tea", "bakery", "canteen", "food",
				"kfc", "mcdonald", "domino", "pizza", "burger", "shawarma",
				"biryani", "meal", "combo", "lunch", "dinner",
				"zomato", "swiggy", "parotta", "dosa", "idly", "pongal",
				"poori", "friedrice", "noodles", "grill", "dine in", "take away",
			}},
			{Name: "Groceries", Keywords: []string{
				"grocery", "groceries", "supermarket", "mart", "provision",
				"rice", "wheat", "atta", "flour", "curd", "butter", "ghee",
				"vegetable", "fruit", "onion", "tomato", "potato",
				"dhal", "masala", "spices", "salt", "sugar", "dal",
				"groundnutoil", "sunfloweroil", "cookingoil",
			}},
			{Name: "Fuel", Keywords: []string{
				"petrol", "diesel", "fuel", "cng",
				"petrolpump", "fillingstation",
				"indianoil", "bharatpetroleum", "hindustanpetroleum",
			}},
			{Name: "Travel", Keywords: []string{
				"uber", "ola", "rapido", "taxi", "cab", "auto",
				"bus", "train", "metro", "railway",
				"ticket", "travels", "transport", "journey",
				"trip", "kilometer", "kilometre", "km",
				"vehicle", "veh", "driver", "driverbatta",
				"toll", "tollgate", "route", "from", "to",
			}},
			{Name: "Shopping", Keywords: []string{
				"shirt", "tshirt", "t-shirt", "pant", "pants", "trouser",
				"jeans", "dress", "kurti", "saree", "top", "jacket",
				"shoe", "shoes", "chappal", "slipper", "sandals",
				"belt", "wallet", "handbag", "backpack",
				"watch", "garment", "clothing", "fashion",
			}},
			{Name: "Entertainment", Keywords: []string{
				"movie", "cinema", "theatre", "screen",
				"netflix", "primevideo", "hotstar",
				"bookmyshow", "show", "concert", "event",
			}},
			{Name: "Education", Keywords: []string{
				"school", "college", "university", "tuition",
				"coaching", "course", "training", "exam",
				"book", "notebook", "stationery", "education",
			}},
			{Name: "Utilities", Keywords: []string{
				"electricity", "water", "gas", "lpg",
				"wifi", "broadband", "internet",
				"mobile", "recharge", "dataplan", "postpaid", "prepaid",
			}},
			{Name: "Gadgets", Keywords: []string{
				"earbuds", "headphones", "bluetooth", "smartwatch",
				"mobile", "laptop", "tablet", "charger",
				"powerbank", "camera", "speaker",
				"router", "modem", "keyboard", "mouse",
				"usb", "ssd", "harddisk", "monitor",
				"printer", "projector",
			}},
			{Name: "Mechanical", Keywords: []string{
				"spanner", "wrench", "hammer", "screwdriver",
				"drill", "grinder", "lathe", "cutter",
				"plier", "measuring tape", "vernier",
				"caliper", "bearing", "gear", "chain",
				"compressor", "welding", "soldering",
				"tool kit", "machine oil",
			}},
		},
	}
}
