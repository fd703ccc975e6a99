package product

// Deduplicate 以指紋去重：依到達順序單次線性掃描，保留先到的記錄。
// 順序保持不變，且對已去重的列表再執行一次結果相同（冪等）。
func Deduplicate(items []CanonicalProduct) []CanonicalProduct {
	seen := make(map[string]struct{}, len(items))
	out := make([]CanonicalProduct, 0, len(items))
	for _, item := range items {
		fp := item.Fingerprint()
		if _, exists := seen[fp]; exists {
			continue
		}
		seen[fp] = struct{}{}
		out = append(out, item)
	}
	return out
}
