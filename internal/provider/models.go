package provider

// ModelType represents a standard data model type. Each ModelType maps to
// a specific data structure in pkg/models/.
type ModelType string

// --- Crypto ---
const (
	ModelCoinList    ModelType = "CoinList"    // []models.Coin
	ModelCoinDetail  ModelType = "CoinDetail"  // *models.CoinDetail
	ModelCoinHistory ModelType = "CoinHistory" // *models.ChartSeries
)

// --- Exchanges / NFT ---
const (
	ModelExchangeList ModelType = "ExchangeList" // []models.Exchange
	ModelNftList      ModelType = "NftList"      // []models.NFTCollection
)

// --- Stocks ---
const (
	ModelStockQuote   ModelType = "StockQuote"   // *models.StockQuote
	ModelStockSeries  ModelType = "StockSeries"  // *models.ChartSeries
	ModelMarketStatus ModelType = "MarketStatus" // []models.MarketVenue
)

// --- News ---
const (
	ModelNewsSentiment ModelType = "NewsSentiment" // []models.NewsArticle
	ModelMarketNews    ModelType = "MarketNews"    // []models.NewsArticle
)
