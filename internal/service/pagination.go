package service

// pageBounds returns the slice bounds of a 1-based page over n items. Pages
// past the end yield an empty range.
func pageBounds(page, perPage, n int) (start, end int) {
	if page < 1 || perPage < 1 || page-1 > n/perPage {
		return n, n
	}
	start = min((page-1)*perPage, n)
	end = min(start+perPage, n)
	return start, end
}
