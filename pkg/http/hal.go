package http

// Helpers for the HAL resource representations served by the handlers.
// See https://datatracker.ietf.org/doc/html/draft-kelly-json-hal

type Link struct {
	Href      string `json:"href"`
	Templated bool   `json:"templated,omitempty"`
}

type Links map[string]Link

func SelfLink(href string) Links {
	return Links{"self": {Href: href}}
}

func (l Links) With(rel, href string) Links {
	l[rel] = Link{Href: href}
	return l
}

func (l Links) WithTemplated(rel, href string) Links {
	l[rel] = Link{Href: href, Templated: true}
	return l
}
