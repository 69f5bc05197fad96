package lastfm

type response struct {
	Error   int    `json:"error"`
	Message string `json:"message"`
	Track   *track `json:"track"`
	Album   *album `json:"album"`
}

type track struct {
	Name  string `json:"name"`
	Album *album `json:"album"`
}

type album struct {
	Title  string  `json:"title"`
	Name   string  `json:"name"`
	Artist string  `json:"artist"`
	Image  []image `json:"image"`
}

type image struct {
	Size string `json:"size"`
	Text string `json:"#text"`
}

func (a *album) imageURL(i int) *string {
	if i >= len(a.Image) || a.Image[i].Text == "" {
		return nil
	}
	u := a.Image[i].Text
	return &u
}
