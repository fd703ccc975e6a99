package product

import (
	"fmt"
	"strings"

	"product-resolver/internal/core/provider/catalog"
	"product-resolver/internal/core/provider/regulatory"

	"github.com/google/uuid"
)

// 各 Normalizer 為純函數：將單一來源的原始結構映射為 CanonicalProduct。
// 映射後名稱為空或等於未知佔位名稱時回傳 nil，該記錄在進入去重前就被丟棄。

// NormalizeCatalog 映射商品目錄的原始商品
func NormalizeCatalog(raw catalog.Product) *CanonicalProduct {
	name := strings.TrimSpace(raw.ProductName)
	if name == "" || name == UnknownName {
		return nil
	}

	id := strings.TrimSpace(raw.Code)
	if id == "" {
		id = "catalog:" + uuid.New().String()
	}

	nutrition := make(map[string]string)
	for key, val := range raw.Nutriments {
		switch v := val.(type) {
		case string:
			if v != "" {
				nutrition[key] = v
			}
		case float64, int, int64:
			nutrition[key] = fmt.Sprintf("%v", v)
		}
	}

	ingredients := make([]Ingredient, 0, len(raw.IngredientsTags))
	for i, tag := range raw.IngredientsTags {
		ingredients = append(ingredients, Ingredient{
			Name: stripLanguageTag(tag),
			Rank: i + 1,
		})
	}

	flavors := make([]string, 0, len(raw.FlavorsTags))
	for _, tag := range raw.FlavorsTags {
		flavors = append(flavors, stripLanguageTag(tag))
	}

	return &CanonicalProduct{
		ID: id,
		Identity: Identity{
			Name:        name,
			Brand:       strings.TrimSpace(raw.Brands),
			Barcode:     strings.TrimSpace(raw.Code),
			Category:    firstSegment(raw.Categories),
			Description: strings.TrimSpace(raw.GenericName),
		},
		Media: Media{
			FrontImage: raw.ImageFrontURL,
			Thumbnail:  raw.ImageFrontThumbURL,
		},
		Grades: Grades{
			NutriScore:      normalizeGrade(raw.NutriScoreGrade),
			EcoScore:        normalizeGrade(raw.EcoScoreGrade),
			ProcessingScore: normalizeNovaGroup(raw.NovaGroup),
		},
		Nutrition:      nutrition,
		SensoryProfile: SensoryProfile{Flavors: flavors},
		Ingredients:    ingredients,
	}
}

// NormalizeRegulatory 映射政府食品資料庫的原始記錄
func NormalizeRegulatory(raw regulatory.Food) *CanonicalProduct {
	name := strings.TrimSpace(raw.Description)
	if name == "" || name == UnknownName {
		return nil
	}

	brand := strings.TrimSpace(raw.BrandName)
	if brand == "" {
		brand = strings.TrimSpace(raw.BrandOwner)
	}

	nutrition := make(map[string]string)
	for _, n := range raw.Nutrients {
		if n.NutrientName == "" {
			continue
		}
		nutrition[n.NutrientName] = fmt.Sprintf("%g %s", n.Value, strings.ToLower(n.UnitName))
	}

	var ingredients []Ingredient
	for i, part := range strings.Split(raw.Ingredients, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		ingredients = append(ingredients, Ingredient{
			Name: strings.ToLower(part),
			Rank: i + 1,
		})
	}

	return &CanonicalProduct{
		ID: fmt.Sprintf("fdc:%d", raw.FdcID),
		Identity: Identity{
			Name:        name,
			Brand:       brand,
			Barcode:     strings.TrimSpace(raw.GtinUpc),
			Category:    strings.TrimSpace(raw.Category),
			Description: "",
		},
		Media: Media{},
		Grades: Grades{
			NutriScore:      "?",
			EcoScore:        "?",
			ProcessingScore: "?",
		},
		Nutrition:      nutrition,
		SensoryProfile: SensoryProfile{Flavors: []string{}},
		Ingredients:    ingredients,
	}
}

// NormalizeWebResult 由網頁搜尋結果建立商品記錄（條碼查詢第三層用）。
// 標題切分規則：含 " - " 時前段為品牌、其餘為名稱；
// 否則標題有兩個字以上時，第一個字視為品牌、完整標題為名稱。
func NormalizeWebResult(result WebResult, barcode, image string) *CanonicalProduct {
	title := strings.TrimSpace(result.Title)
	if title == "" || title == UnknownName {
		return nil
	}

	brand, name := SplitWebTitle(title)

	id := barcode
	if id == "" {
		id = "web:" + uuid.New().String()
	}

	return &CanonicalProduct{
		ID: id,
		Identity: Identity{
			Name:        name,
			Brand:       brand,
			Barcode:     barcode,
			Category:    "web",
			Description: strings.TrimSpace(result.Snippet),
		},
		Media: Media{
			FrontImage: image,
			Thumbnail:  image,
		},
		Grades: Grades{
			NutriScore:      "?",
			EcoScore:        "?",
			ProcessingScore: "?",
		},
		Nutrition:      map[string]string{},
		SensoryProfile: SensoryProfile{Flavors: []string{}},
		Ingredients:    []Ingredient{},
	}
}

// SplitWebTitle 以啟發式規則將網頁標題切成品牌與名稱
func SplitWebTitle(title string) (brand, name string) {
	title = strings.TrimSpace(title)
	if idx := strings.Index(title, " - "); idx != -1 {
		return strings.TrimSpace(title[:idx]), strings.TrimSpace(title[idx+3:])
	}
	words := strings.Fields(title)
	if len(words) >= 2 {
		return words[0], title
	}
	return "", title
}

// normalizeGrade 轉為單一大寫字母評級，未知時為 "?"
func normalizeGrade(grade string) string {
	grade = strings.TrimSpace(strings.ToUpper(grade))
	if len(grade) != 1 || grade == "?" {
		return "?"
	}
	if grade[0] < 'A' || grade[0] > 'E' {
		return "?"
	}
	return grade
}

// normalizeNovaGroup NOVA 加工分級 1~4，未知時為 "?"
func normalizeNovaGroup(group int) string {
	if group < 1 || group > 4 {
		return "?"
	}
	return fmt.Sprintf("%d", group)
}

// stripLanguageTag 去除 "en:" 之類的語言前綴
func stripLanguageTag(tag string) string {
	if idx := strings.Index(tag, ":"); idx != -1 {
		tag = tag[idx+1:]
	}
	return strings.ReplaceAll(tag, "-", " ")
}

// firstSegment 取逗號分隔字串的第一段
func firstSegment(s string) string {
	if idx := strings.Index(s, ","); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
