package symbols

// defaultTables returns the built-in mapping tables used to seed a mappings
// file that does not exist yet.
func defaultTables() *Tables {
	return &Tables{
		Version: "1.0.0",
		Companies: []CompanyMapping{
			{Name: "APPLE", Ticker: "AAPL"},
			{Name: "MICROSOFT", Ticker: "MSFT"},
			{Name: "GOOGLE", Ticker: "GOOGL"},
			{Name: "ALPHABET", Ticker: "GOOGL"},
			{Name: "AMAZON", Ticker: "AMZN"},
			{Name: "META", Ticker: "META"},
			{Name: "FACEBOOK", Ticker: "META"},
			{Name: "TESLA", Ticker: "TSLA"},
			{Name: "NVIDIA", Ticker: "NVDA"},
			{Name: "NETFLIX", Ticker: "NFLX"},
			{Name: "IBM", Ticker: "IBM"},
			{Name: "INTEL", Ticker: "INTC"},
			{Name: "AMD", Ticker: "AMD"},
			{Name: "COCA-COLA", Ticker: "KO"},
			{Name: "DISNEY", Ticker: "DIS"},
			{Name: "WALMART", Ticker: "WMT"},
			{Name: "NIKE", Ticker: "NKE"},
			{Name: "MCDONALDS", Ticker: "MCD"},
			{Name: "STARBUCKS", Ticker: "SBUX"},
			{Name: "COSTCO", Ticker: "COST"},
			{Name: "VISA", Ticker: "V"},
			{Name: "MASTERCARD", Ticker: "MA"},
			{Name: "PAYPAL", Ticker: "PYPL"},
			{Name: "UBER", Ticker: "UBER"},
			{Name: "LYFT", Ticker: "LYFT"},
			{Name: "AIRBNB", Ticker: "ABNB"},
			{Name: "PINTEREST", Ticker: "PINS"},
			{Name: "SNAPCHAT", Ticker: "SNAP"},
			{Name: "TWITTER", Ticker: "TWTR"},
			{Name: "SPOTIFY", Ticker: "SPOT"},
		},
		KnownTickers: []string{
			"AAPL", "MSFT", "GOOGL", "GOOG", "AMZN", "META", "TSLA", "NVDA", "NFLX",
			"IBM", "INTC", "AMD", "KO", "DIS", "WMT", "NKE", "MCD", "SBUX", "COST",
			"V", "MA", "PYPL", "UBER", "LYFT", "ABNB", "PINS", "SNAP", "TWTR", "SPOT",
			"JPM", "BAC", "GS", "MS", "C", "WFC", "BRK.A", "BRK.B", "JNJ", "PG",
			"UNH", "HD", "VZ", "T", "PFE", "MRK", "XOM", "CVX", "BA", "CAT",
		},
		CommonWords: []string{
			"A", "I", "ME", "MY", "IT", "IS", "BE", "AM", "PM", "THE", "AND", "OR", "IF", "IN", "ON", "AT", "TO", "OF", "BY",
			"FOR", "AS", "SO", "BUT", "OUT", "UP", "FAQ", "CEO", "CFO", "CTO", "COO", "SVP", "VP", "USA", "UK", "EU",
			"WHAT", "WHO", "WHY", "HOW", "WHEN", "WHERE", "WHICH", "THAT", "THESE", "THOSE", "THEY", "THIS", "WILL", "ABOUT",
			"FROM", "WITH", "SHOW", "GET", "CAN", "MAY", "HAS", "HAD", "WAS", "WERE", "BEEN", "NEW", "OLD", "BIG", "TOP", "DOW",
			"STOCK", "STOCKS", "PRICE", "PRICES", "MARKET", "MARKETS", "TRADE", "TRADES", "TRADING", "BUY", "SELL",
			"GAIN", "GAINS", "LOSS", "LOSSES", "PROFIT", "PROFITS", "DIVIDEND", "DIVIDENDS", "YIELD", "YIELDS",
			"FUND", "FUNDS", "ETF", "ETFS", "BOND", "BONDS", "VALUE", "GROWTH", "INCOME", "RETURN", "RETURNS",
			"HIGH", "LOW", "OPEN", "CLOSE", "VOLUME", "INFO", "NEWS", "DATA", "REPORT", "TELL", "MOST", "BEST",
			"YES", "NO", "NOW", "THEN", "HERE", "THERE", "YOUR", "HIS", "HER", "THEIR", "OUR",
		},
	}
}
