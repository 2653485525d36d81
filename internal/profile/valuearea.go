package profile

// ValueAreaShare доля объёма в зоне стоимости
const ValueAreaShare = 0.7

// ValueArea расширяет окно [left, right] от POC, пока накопленный объём не достигнет
// 70% от общего или пока не кончатся уровни с обеих сторон. На каждом шаге окно растёт
// в сторону соседнего уровня с большим объёмом; при равенстве влево.
func ValueArea(bins []Bin, pocIndex int) (left, right int) {
	if len(bins) == 0 || pocIndex < 0 || pocIndex >= len(bins) {
		return 0, 0
	}

	total := 0.0
	for _, b := range bins {
		total += b.Volume
	}
	target := total * ValueAreaShare

	left, right = pocIndex, pocIndex
	acc := bins[pocIndex].Volume
	last := len(bins) - 1

	for acc < target && (left > 0 || right < last) {
		switch {
		case left == 0:
			right++
			acc += bins[right].Volume
		case right == last:
			left--
			acc += bins[left].Volume
		case bins[left-1].Volume >= bins[right+1].Volume:
			left--
			acc += bins[left].Volume
		default:
			right++
			acc += bins[right].Volume
		}
	}
	return left, right
}
