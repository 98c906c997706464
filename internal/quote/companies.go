package quote

// TopCompanies is the default trending universe, largest first.
var TopCompanies = []Company{
	{"AAPL", "Apple Inc."},
	{"MSFT", "Microsoft Corporation"},
	{"GOOGL", "Alphabet Inc. (Google)"},
	{"AMZN", "Amazon.com Inc."},
	{"NVDA", "NVIDIA Corporation"},
	{"META", "Meta Platforms Inc."},
	{"TSLA", "Tesla Inc."},
	{"BRKB", "Berkshire Hathaway Inc."},
	{"V", "Visa Inc."},
	{"JPM", "JPMorgan Chase & Co."},
	{"BAC", "Bank of America Corp"},
	{"WFC", "Wells Fargo & Co"},
	{"C", "Citigroup Inc"},
	{"MA", "Mastercard Inc"},
	{"GS", "Goldman Sachs Group Inc"},
	{"JNJ", "Johnson & Johnson"},
	{"UNH", "UnitedHealth Group Inc"},
	{"PFE", "Pfizer Inc"},
	{"MRK", "Merck & Co Inc"},
	{"ABT", "Abbott Laboratories"},
	{"PG", "Procter & Gamble Co"},
	{"KO", "Coca-Cola Co"},
	{"PEP", "PepsiCo Inc"},
	{"COST", "Costco Wholesale Corp"},
	{"WMT", "Walmart Inc"},
	{"VZ", "Verizon Communications Inc"},
	{"T", "AT&T Inc"},
	{"TMUS", "T-Mobile US Inc"},
	{"XOM", "Exxon Mobil Corp"},
	{"CVX", "Chevron Corp"},
	{"HON", "Honeywell International Inc"},
	{"UPS", "United Parcel Service Inc"},
	{"BA", "Boeing Co"},
	{"CAT", "Caterpillar Inc"},
	{"GE", "General Electric Co"},
	{"INTC", "Intel Corp"},
	{"AMD", "Advanced Micro Devices Inc"},
	{"CSCO", "Cisco Systems Inc"},
	{"ORCL", "Oracle Corp"},
	{"IBM", "International Business Machines Corp"},
	{"MS", "Morgan Stanley"},
	{"AXP", "American Express Co"},
	{"BLK", "BlackRock Inc"},
	{"SCHW", "Charles Schwab Corp"},
	{"PNC", "PNC Financial Services Group Inc"},
	{"ABBV", "AbbVie Inc"},
	{"LLY", "Eli Lilly and Co"},
	{"TMO", "Thermo Fisher Scientific Inc"},
	{"DHR", "Danaher Corp"},
	{"BMY", "Bristol-Myers Squibb Co"},
	{"HD", "Home Depot Inc"},
	{"MCD", "McDonald's Corp"},
	{"NKE", "Nike Inc"},
	{"SBUX", "Starbucks Corp"},
	{"DIS", "Walt Disney Co"},
	{"COP", "ConocoPhillips"},
	{"SLB", "Schlumberger NV"},
	{"EOG", "EOG Resources Inc"},
	{"PSX", "Phillips 66"},
	{"OXY", "Occidental Petroleum Corp"},
	{"MMM", "3M Co"},
	{"DE", "Deere & Co"},
	{"LMT", "Lockheed Martin Corp"},
	{"RTX", "Raytheon Technologies Corp"},
	{"GD", "General Dynamics Corp"},
	{"NFLX", "Netflix Inc"},
	{"PYPL", "PayPal Holdings Inc"},
	{"ADBE", "Adobe Inc"},
	{"CRM", "Salesforce Inc"},
	{"QCOM", "Qualcomm Inc"},
	{"TXN", "Texas Instruments Inc"},
	{"AVGO", "Broadcom Inc"},
	{"AMAT", "Applied Materials Inc"},
	{"MU", "Micron Technology Inc"},
	{"BIDU", "Baidu Inc"},
	{"BABA", "Alibaba Group Holding Ltd"},
	{"JD", "JD.com Inc"},
	{"PDD", "PDD Holdings Inc"},
	{"TCEHY", "Tencent Holdings Ltd"},
	{"TSM", "Taiwan Semiconductor Manufacturing Co Ltd"},
	{"SONY", "Sony Group Corp"},
	{"TM", "Toyota Motor Corp"},
	{"HMC", "Honda Motor Co Ltd"},
	{"F", "Ford Motor Co"},
	{"GM", "General Motors Co"},
	{"UBER", "Uber Technologies Inc"},
	{"LYFT", "Lyft Inc"},
	{"DASH", "DoorDash Inc"},
	{"ABNB", "Airbnb Inc"},
	{"ZM", "Zoom Video Communications Inc"},
	{"SHOP", "Shopify Inc"},
	{"SQ", "Block Inc"},
	{"COIN", "Coinbase Global Inc"},
	{"PLTR", "Palantir Technologies Inc"},
	{"SNOW", "Snowflake Inc"},
}
