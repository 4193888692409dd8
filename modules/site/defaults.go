package site

import "github.com/GoCodeAlone/folio/modules/content"

// Fallbacks shown when a section is missing or unreadable.

var defaultHero = heroContent{
	Title:          "Hi, I'm Aditya Dimri",
	Subtitle:       "A passionate developer focused on creating impactful digital experiences",
	Experience:     "3+ Years",
	Projects:       "20+ Completed",
	Overview:       "I specialize in modern web development, crafting performant and scalable applications that solve real-world problems.",
	ProfilePicture: "https://images.unsplash.com/photo-1472099645785-5658abf4ff4e",
}

var defaultEducation = educationView{
	Degree:      "B.Tech in Computer Science & Engineering",
	Period:      "2022-2026",
	Institution: "Graphic Era Hill University",
	Achievements: []string{
		"🔹 Haptic Hearing System – Developing for a hackathon",
		"🔹 Cursor Controller Using Webcam – Built a system to control the cursor with hand gestures",
		"🔹 Social Media Website – Created during diploma, a complete social networking platform",
	},
}

var defaultSkills = skillsView{Categories: []skillCategory{
	{Title: "Frontend Development", Skills: []skillItem{
		{"React", 90}, {"TypeScript", 85}, {"Responsive Design", 95}, {"State Management", 88},
	}},
	{Title: "Backend Development", Skills: []skillItem{
		{"Node.js", 88}, {"PostgreSQL", 82}, {"RESTful APIs", 90}, {"GraphQL", 75},
	}},
	{Title: "DevOps & Tools", Skills: []skillItem{
		{"AWS", 80}, {"Docker", 85}, {"CI/CD", 78}, {"Git", 92},
	}},
}}

var defaultGoals = goalsView{
	Goals: []goalItem{
		{"Technical Excellence", "Continuously expanding expertise in emerging technologies and best practices to deliver cutting-edge solutions."},
		{"Community Impact", "Contributing to open-source projects and mentoring aspiring developers to give back to the tech community."},
		{"Innovation", "Building innovative solutions that solve real-world problems and improve user experiences."},
		{"Global Reach", "Creating applications that reach and positively impact users worldwide."},
	},
	Vision: "My goal is to become a leading force in software development, creating innovative solutions that make a meaningful difference in people's lives while inspiring the next generation of developers.",
}

func strPtr(s string) *string { return &s }

var defaultProjects = []content.Project{
	{
		ID:          1,
		Title:       "E-Commerce Platform",
		Description: "A full-stack e-commerce solution with real-time inventory management",
		ImageURL:    "https://images.unsplash.com/photo-1508873535684-277a3cbcc4e8",
		Link:        strPtr("https://github.com/adimri/ecommerce"),
	},
	{
		ID:          2,
		Title:       "Task Management App",
		Description: "A collaborative task management application with real-time updates",
		ImageURL:    "https://images.unsplash.com/photo-1454165804606-c3d57bc86b40",
		Link:        strPtr("https://github.com/adimri/taskmanager"),
	},
	{
		ID:          3,
		Title:       "Social Media Dashboard",
		Description: "Analytics dashboard for social media performance tracking",
		ImageURL:    "https://images.unsplash.com/photo-1739514984003-330f7c1d2007",
		Link:        strPtr("https://github.com/adimri/dashboard"),
	},
}
