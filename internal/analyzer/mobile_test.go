package analyzer

import (
	"testing"

	"github.com/ultronhq/ultron/internal/models"
)

func TestCheckMobile(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    models.MobileSignals
	}{
		{
			name:    "No viewport",
			content: `<html><head><title>x</title></head></html>`,
			want:    models.MobileSignals{UserScalable: true},
		},
		{
			name:    "Device-width viewport",
			content: `<meta name="viewport" content="width=device-width, initial-scale=1">`,
			want: models.MobileSignals{
				ViewportMeta: true,
				Viewport:     "width=device-width, initial-scale=1",
				DeviceWidth:  true,
				UserScalable: true,
			},
		},
		{
			name:    "Zoom disabled",
			content: `<meta name="VIEWPORT" content="width=device-width; user-scalable=no">`,
			want: models.MobileSignals{
				ViewportMeta: true,
				Viewport:     "width=device-width; user-scalable=no",
				DeviceWidth:  true,
				UserScalable: false,
			},
		},
		{
			name:    "Maximum scale of one",
			content: `<meta name="viewport" content="width=1024, maximum-scale=1.0">`,
			want: models.MobileSignals{
				ViewportMeta: true,
				Viewport:     "width=1024, maximum-scale=1.0",
				UserScalable: false,
			},
		},
		{
			name: "Responsive signals",
			content: `<head>
				<link rel="stylesheet" href="/css/bootstrap.min.css">
				<link rel="stylesheet" media="screen and (max-width: 600px)" href="/m.css">
				<link rel="apple-touch-icon" href="/icon.png">
			</head>
			<body><img src="a.png" srcset="a.png 1x, a@2x.png 2x"></body>`,
			want: models.MobileSignals{
				UserScalable:        true,
				ResponsiveImages:    true,
				MediaQueries:        true,
				ResponsiveFramework: "Bootstrap",
				TouchIcon:           true,
			},
		},
		{
			name:    "Inline media query and picture",
			content: `<style>@media (min-width: 768px) { .a { display: none } }</style><picture><img src="x.png"></picture>`,
			want: models.MobileSignals{
				UserScalable:     true,
				ResponsiveImages: true,
				MediaQueries:     true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CheckMobile(ParseDocument([]byte(tt.content), "text/html", nil))
			if got != tt.want {
				t.Errorf("CheckMobile() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
