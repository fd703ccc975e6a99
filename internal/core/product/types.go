package product

import (
	"strings"
)

// UnknownName 各來源共用的「未知商品」佔位名稱。
// Normalizer 一律丟棄對應到此名稱的記錄。
const UnknownName = "Unknown Product"

// Identity 商品識別資訊
type Identity struct {
	Name        string `json:"name"`
	Brand       string `json:"brand"`
	Barcode     string `json:"barcode"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

// Media 商品圖片資訊
type Media struct {
	FrontImage string `json:"front_image"`
	Thumbnail  string `json:"thumbnail"`
}

// Grades 商品評級，未知時為 "?"
type Grades struct {
	NutriScore      string `json:"nutri_score"`
	EcoScore        string `json:"eco_score"`
	ProcessingScore string `json:"processing_score"`
}

// SensoryProfile 感官描述
type SensoryProfile struct {
	Flavors []string `json:"flavors"`
}

// Ingredient 成分條目
type Ingredient struct {
	Name string `json:"name"`
	Rank int    `json:"rank,omitempty"`
}

// CanonicalProduct 各元件之間交換的標準商品記錄。
// Normalizer 產出後即視為不可變；ImageEnricher 以複本替換，不就地修改。
type CanonicalProduct struct {
	ID             string            `json:"id"`
	Identity       Identity          `json:"identity"`
	Media          Media             `json:"media"`
	Grades         Grades            `json:"grades"`
	Nutrition      map[string]string `json:"nutrition"`
	SensoryProfile SensoryProfile    `json:"sensory_profile"`
	Ingredients    []Ingredient      `json:"ingredients"`
}

// Fingerprint 計算去重指紋：小寫去空白的名稱 + 品牌第一個逗號分段。
// 空品牌也參與組合，讓無品牌的同名商品彼此視為同一筆。
func (p CanonicalProduct) Fingerprint() string {
	name := strings.ToLower(strings.TrimSpace(p.Identity.Name))
	brand := strings.ToLower(strings.TrimSpace(p.Identity.Brand))
	if idx := strings.Index(brand, ","); idx != -1 {
		brand = strings.TrimSpace(brand[:idx])
	}
	return name + "|" + brand
}

// WebContext 提供給 AI 合成的網頁搜尋上下文
type WebContext struct {
	Title     string `json:"title"`
	Snippet   string `json:"snippet"`
	Image     string `json:"image"`
	SourceURL string `json:"source_url"`
}
