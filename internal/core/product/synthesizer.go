package product

import (
	"context"
	"fmt"
	"strings"

	"product-resolver/internal/core/provider/synthesis"
	"product-resolver/internal/pkg/common"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SynthesisAdapter AI 合成轉接器：組 prompt、調用 OpenRouter、容錯解析回應
type SynthesisAdapter struct {
	client *synthesis.Client
}

// NewSynthesisAdapter 創建 AI 合成轉接器
func NewSynthesisAdapter(client *synthesis.Client) *SynthesisAdapter {
	return &SynthesisAdapter{client: client}
}

// looseProduct 寬鬆版中繼結構，容忍 AI 回應的欄位雜訊
type looseProduct struct {
	Name            string            `json:"name"`
	Brand           string            `json:"brand"`
	Barcode         string            `json:"barcode"`
	Category        string            `json:"category"`
	Description     string            `json:"description"`
	NutriScore      string            `json:"nutri_score"`
	EcoScore        string            `json:"eco_score"`
	ProcessingScore string            `json:"processing_score"`
	Nutrition       map[string]string `json:"nutrition"`
	Flavors         []string          `json:"flavors"`
	Ingredients     []string          `json:"ingredients"`
}

// Synthesize 以查詢文字（可附網頁上下文）合成單一商品記錄。
// AI 無法給出有效名稱時回傳 nil 記錄而非錯誤。
func (a *SynthesisAdapter) Synthesize(ctx context.Context, query string, webCtx *WebContext) (*CanonicalProduct, error) {
	prompt := buildSynthesisPrompt(query, webCtx)

	common.LogDebug("Synthesize 組裝的 prompt", zap.String("prompt", prompt))

	content, err := a.client.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("AI service error: %w", err)
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("empty AI response")
	}

	text := common.ExtractJSONObject(content)

	// 先用寬鬆版解析，忽略欄位型別雜訊
	var lp looseProduct
	if err := common.ParseJSON(text, &lp); err != nil {
		common.LogError("AI 回應解析失敗(loose)", zap.Error(err), zap.Int("ai_response_length", len(text)))
		return nil, fmt.Errorf("failed to parse AI response (loose): %w", err)
	}

	name := strings.TrimSpace(lp.Name)
	if name == "" || name == UnknownName {
		common.LogWarn("AI 合成結果缺少有效名稱",
			zap.String("query", query),
		)
		return nil, nil
	}

	// 檢查並補充欄位
	if lp.Category == "" {
		lp.Category = "ai-generated"
	}
	if lp.Nutrition == nil {
		lp.Nutrition = map[string]string{}
	}
	if lp.Flavors == nil {
		lp.Flavors = []string{}
	}

	ingredients := make([]Ingredient, 0, len(lp.Ingredients))
	for i, ing := range lp.Ingredients {
		ing = strings.TrimSpace(ing)
		if ing == "" {
			continue
		}
		ingredients = append(ingredients, Ingredient{Name: ing, Rank: i + 1})
	}

	result := &CanonicalProduct{
		ID: "ai:" + uuid.New().String(),
		Identity: Identity{
			Name:        name,
			Brand:       strings.TrimSpace(lp.Brand),
			Barcode:     strings.TrimSpace(lp.Barcode),
			Category:    lp.Category,
			Description: strings.TrimSpace(lp.Description),
		},
		Grades: Grades{
			NutriScore:      fallbackGrade(lp.NutriScore),
			EcoScore:        fallbackGrade(lp.EcoScore),
			ProcessingScore: fallbackGrade(lp.ProcessingScore),
		},
		Nutrition:      lp.Nutrition,
		SensoryProfile: SensoryProfile{Flavors: lp.Flavors},
		Ingredients:    ingredients,
	}

	// 只採用已通過疑似 logo 過濾的上下文圖片
	if webCtx != nil && webCtx.Image != "" {
		result.Media.FrontImage = webCtx.Image
		result.Media.Thumbnail = webCtx.Image
	}

	return result, nil
}

// fallbackGrade 空評級補 "?"
func fallbackGrade(grade string) string {
	grade = strings.TrimSpace(strings.ToUpper(grade))
	if grade == "" {
		return "?"
	}
	if len(grade) != 1 {
		return "?"
	}
	return grade
}

// buildSynthesisPrompt 組裝合成 prompt，要求回傳最緊湊的單一 JSON
func buildSynthesisPrompt(query string, webCtx *WebContext) string {
	var sb strings.Builder
	sb.WriteString("你是一位商品資料專家，請根據以下資訊推斷出最可能的單一商品並整理其資料。\n")
	sb.WriteString(fmt.Sprintf("查詢文字：%s\n", query))

	if webCtx != nil {
		sb.WriteString("以下是網頁搜尋到的相關內容，請以此為準：\n")
		if webCtx.Title != "" {
			sb.WriteString(fmt.Sprintf("標題：%s\n", webCtx.Title))
		}
		if webCtx.Snippet != "" {
			sb.WriteString(fmt.Sprintf("摘要：%s\n", webCtx.Snippet))
		}
		if webCtx.SourceURL != "" {
			sb.WriteString(fmt.Sprintf("來源：%s\n", webCtx.SourceURL))
		}
	}

	sb.WriteString(`
要求：
1. 只根據提供的資訊推斷，不要捏造具體數值，若無法確定請留空 "" 或 "?"
2. 所有字段都必須使用雙引號
3. 不需要考慮可讀性，請省略所有空格和換行，返回最緊湊的 JSON 格式
4. 只回傳一個獨立的json，不要回傳多個json
5. nutri_score / eco_score / processing_score 為單一字母或數字評級，未知填 "?"
6. nutrition 為 key-value 物件，value 為含單位的字串
7. 不要使用\n，不需要換行

請以以下 JSON 格式返回（僅作為範例，請勿直接複製內容）：
{
    "name": "商品名稱",
    "brand": "品牌",
    "barcode": "",
    "category": "分類",
    "description": "描述",
    "nutri_score": "?",
    "eco_score": "?",
    "processing_score": "?",
    "nutrition": {"energy-kcal": "250 kcal"},
    "flavors": ["口味"],
    "ingredients": ["成分"]
}`)

	return sb.String()
}
