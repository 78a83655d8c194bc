package model

// Weather は天気プロバイダのレスポンスを正規化したもの。
// 永続化はせず、ユーザーレコードの座標導出にのみ使用する。
type Weather struct {
	Coord      Coord              `json:"coord" validate:"required"`
	Conditions []WeatherCondition `json:"weather" validate:"required,dive"`
	// Timezone はUTCからのオフセット（秒）。
	Timezone int `json:"timezone"`
	// CityID / CityName はプロバイダが解決した都市の識別情報。
	// ストアには保存しないが、表示用に保持する。
	CityID   int64  `json:"id"`
	CityName string `json:"name" validate:"required"`
	// Cod はプロバイダのリクエストレベルのステータスコード。200が成功。
	Cod int `json:"cod" validate:"required"`
}

// Coord は座標を表す。
type Coord struct {
	Lat float64 `json:"lat" validate:"min=-90,max=90"`
	Lon float64 `json:"lon" validate:"min=-180,max=180"`
}

// WeatherCondition は天気の概況1件を表す。
type WeatherCondition struct {
	ID          int64  `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}
