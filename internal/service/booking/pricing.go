package booking

// Price 按小时单价计算时段总价，金额一律用币种最小单位的整数
func Price(pricePerHour int64, durationMinutes int) int64 {
	return pricePerHour * int64(durationMinutes) / 60
}
