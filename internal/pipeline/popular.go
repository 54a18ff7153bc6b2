package pipeline

import "github.com/wonny/idxscreen/internal/contracts"

// popularStocks is a fixed list of liquid IDX names
var popularStocks = []contracts.StockInfo{
	{Symbol: "BBCA", Name: "Bank Central Asia"},
	{Symbol: "BBRI", Name: "Bank Rakyat Indonesia"},
	{Symbol: "BMRI", Name: "Bank Mandiri"},
	{Symbol: "TLKM", Name: "Telkom Indonesia"},
	{Symbol: "ASII", Name: "Astra International"},
	{Symbol: "UNVR", Name: "Unilever Indonesia"},
	{Symbol: "HMSP", Name: "HM Sampoerna"},
	{Symbol: "GGRM", Name: "Gudang Garam"},
	{Symbol: "ICBP", Name: "Indofood CBP"},
	{Symbol: "INDF", Name: "Indofood Sukses Makmur"},
	{Symbol: "KLBF", Name: "Kalbe Farma"},
	{Symbol: "PGAS", Name: "Perusahaan Gas Negara"},
	{Symbol: "SMGR", Name: "Semen Indonesia"},
	{Symbol: "UNTR", Name: "United Tractors"},
	{Symbol: "WIKA", Name: "Wijaya Karya"},
	{Symbol: "PTBA", Name: "Bukit Asam"},
	{Symbol: "ANTM", Name: "Aneka Tambang"},
	{Symbol: "INCO", Name: "Vale Indonesia"},
	{Symbol: "EXCL", Name: "XL Axiata"},
	{Symbol: "ISAT", Name: "Indosat Ooredoo"},
	{Symbol: "ADRO", Name: "Adaro Energy"},
	{Symbol: "ITMG", Name: "Indo Tambangraya Megah"},
	{Symbol: "MEDC", Name: "Medco Energi"},
	{Symbol: "CPIN", Name: "Charoen Pokphand"},
	{Symbol: "JPFA", Name: "Japfa Comfeed"},
	{Symbol: "BBNI", Name: "Bank Negara Indonesia"},
	{Symbol: "BRIS", Name: "Bank Syariah Indonesia"},
	{Symbol: "ACES", Name: "Ace Hardware Indonesia"},
	{Symbol: "ERAA", Name: "Erajaya Swasembada"},
	{Symbol: "MAPI", Name: "Mitra Adiperkasa"},
}

// Popular returns the popular-stocks list
func (s *Service) Popular() []contracts.StockInfo {
	out := make([]contracts.StockInfo, len(popularStocks))
	copy(out, popularStocks)
	return out
}
